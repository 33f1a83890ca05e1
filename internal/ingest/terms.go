package ingest

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/terms"
)

// extraTermHeaders are header cells ignored in extra term uploads.
var extraTermHeaders = map[string]bool{"term": true, "service": true, "keyword": true}

// ParseExtraTerms returns every non-empty cell of an extra service terms
// upload, skipping header words, de-duplicated in order.
func ParseExtraTerms(ctx context.Context, raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	rows, err := ReadCSV(ctx, raw)
	if err != nil {
		return nil, err
	}
	set := terms.NewOrderedSet()
	for _, row := range rows {
		for _, cell := range row {
			if !extraTermHeaders[strings.ToLower(cell)] {
				set.Add(cell)
			}
		}
	}
	return set.Items(), nil
}

// ReadExtraTermsFile parses the extra terms file at path.
func ReadExtraTermsFile(ctx context.Context, path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return ParseExtraTerms(ctx, raw)
}

// ParseLines splits text into lines and each line on commas, returning the
// trimmed non-empty values de-duplicated in order.
func ParseLines(text string) []string {
	set := terms.NewOrderedSet()
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		for _, part := range strings.Split(line, ",") {
			set.Add(strings.TrimSpace(part))
		}
	}
	return set.Items()
}

// ParsePatterns parses each value as a pattern ("region+service" or
// "region,service"), skipping blanks.
func ParsePatterns(values ...string) []model.Pattern {
	var out []model.Pattern
	for _, v := range values {
		if p := model.ParsePattern(v); len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// ParsePatternText parses one pattern per line.
func ParsePatternText(text string) []model.Pattern {
	return ParsePatterns(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")...)
}
