package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/keyword-cli/internal/config"
)

// FileName returns the output file name for the group at 1-based index.
func FileName(index int, format string) string {
	ext := config.FormatCSV
	if format == config.FormatXLSX {
		ext = config.FormatXLSX
	}
	return fmt.Sprintf("ad_group_%04d.%s", index, ext)
}

// Rows lays out one group's file content according to the output template.
// The minimal template writes the column header then [id, keyword] rows.
// The naver_csv template writes the fixed header rows, the column header,
// then [id, keyword, pc_url, mobile_url, bid] rows.
func Rows(g Group, cfg config.OutputConfig) [][]string {
	columns := cfg.Columns
	if len(columns) == 0 {
		columns = []string{"ad_group_id", "keyword"}
	}
	var rows [][]string
	if cfg.Template == config.TemplateNaverCSV {
		rows = append(rows, cfg.HeaderRows...)
		rows = append(rows, columns)
		for _, kw := range g.Keywords {
			rows = append(rows, []string{g.ID, kw, cfg.DefaultPCURL, cfg.DefaultMobileURL, cfg.DefaultBid})
		}
		return rows
	}
	rows = append(rows, columns)
	for _, kw := range g.Keywords {
		rows = append(rows, []string{g.ID, kw})
	}
	return rows
}

// Encode writes one group's file to w in the configured format and encoding.
func Encode(w io.Writer, g Group, cfg config.OutputConfig) error {
	rows := Rows(g, cfg)
	if cfg.Format == config.FormatXLSX {
		return writeXLSX(w, rows)
	}
	return writeCSV(w, rows, cfg.Encoding)
}

func writeCSV(w io.Writer, rows [][]string, encoding string) error {
	var tw io.WriteCloser
	switch strings.ToLower(encoding) {
	case config.EncodingUTF8:
		tw = nopCloser{w}
	case config.EncodingCP949:
		tw = transform.NewWriter(w, korean.EUCKR.NewEncoder())
	default:
		tw = transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	}

	cw := csv.NewWriter(tw)
	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	if err := tw.Close(); err != nil {
		return eris.Wrapf(err, "export: encode csv as %s", encoding)
	}
	return nil
}

func writeXLSX(w io.Writer, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("keywords")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WriteFiles writes one file per allocated group into dir and returns the
// written paths in group order.
func WriteFiles(dir string, plan *Plan, cfg config.OutputConfig) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "export: create output dir")
	}
	paths := make([]string, 0, len(plan.Groups))
	for _, g := range plan.Groups {
		var buf bytes.Buffer
		if err := Encode(&buf, g, cfg); err != nil {
			return paths, eris.Wrapf(err, "export: ad group %s", g.ID)
		}
		path := filepath.Join(dir, FileName(g.Index, cfg.Format))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, eris.Wrapf(err, "export: write %s", path)
		}
		paths = append(paths, path)
	}
	zap.L().Info("export files written",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.Int("keywords", plan.AllocatedTotal()),
	)
	return paths, nil
}
