package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// StreamCSV parses text as CSV and sends rows to a channel. Fields are
// trimmed and rows may vary in length. Both channels are closed when
// parsing completes.
func StreamCSV(ctx context.Context, text string) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(strings.NewReader(text))
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrapf(ErrInvalidInput, "csv: read row: %v", err)
				return
			}
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV decodes raw and returns every CSV row.
func ReadCSV(ctx context.Context, raw []byte) ([][]string, error) {
	rowCh, errCh := StreamCSV(ctx, DecodeText(raw))
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}
