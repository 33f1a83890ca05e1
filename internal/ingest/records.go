package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/model"
)

// BusinessRecords extracts business rows from t. The header must carry every
// required column; fully blank rows are dropped.
func BusinessRecords(t *Table) ([]model.BusinessRecord, error) {
	if missing := t.Missing(model.RequiredColumns...); len(missing) > 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "input must include columns %s (missing %s)",
			strings.Join(model.RequiredColumns, ", "), strings.Join(missing, ", "))
	}
	records := make([]model.BusinessRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := model.BusinessRecord{
			Name:        t.Value(row, model.ColumnName),
			Address:     t.Value(row, model.ColumnAddress),
			ServiceText: t.Value(row, model.ColumnServiceText),
		}
		if rec == (model.BusinessRecord{}) {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "input has no business rows")
	}
	return records, nil
}

// ReadBusinessRecords parses an uploaded business file.
func ReadBusinessRecords(ctx context.Context, name string, raw []byte) ([]model.BusinessRecord, error) {
	t, err := ReadTable(ctx, name, raw)
	if err != nil {
		return nil, err
	}
	return BusinessRecords(t)
}

// ReadBusinessRecordsFile parses the business file at path.
func ReadBusinessRecordsFile(ctx context.Context, path string) ([]model.BusinessRecord, error) {
	t, err := ReadTableFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return BusinessRecords(t)
}

// AdGroupIDs returns the non-blank ad_group_id values of t in order.
func AdGroupIDs(t *Table) ([]string, error) {
	if missing := t.Missing(model.ColumnAdGroupID); len(missing) > 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "ad group file must include column %s", model.ColumnAdGroupID)
	}
	ids := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if id := t.Value(row, model.ColumnAdGroupID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ReadAdGroupIDs parses an uploaded ad group file.
func ReadAdGroupIDs(ctx context.Context, name string, raw []byte) ([]string, error) {
	t, err := ReadTable(ctx, name, raw)
	if err != nil {
		return nil, err
	}
	return AdGroupIDs(t)
}

// ReadAdGroupIDsFile parses the ad group file at path.
func ReadAdGroupIDsFile(ctx context.Context, path string) ([]string, error) {
	t, err := ReadTableFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return AdGroupIDs(t)
}
