package export

import (
	"archive/zip"
	"bytes"

	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/config"
)

// Bundle packs the files WriteFiles would produce into a zip archive.
func Bundle(plan *Plan, cfg config.OutputConfig) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, g := range plan.Groups {
		w, err := zw.Create(FileName(g.Index, cfg.Format))
		if err != nil {
			return nil, eris.Wrap(err, "export: create zip entry")
		}
		if err := Encode(w, g, cfg); err != nil {
			return nil, eris.Wrapf(err, "export: ad group %s", g.ID)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, eris.Wrap(err, "export: close zip")
	}
	return buf.Bytes(), nil
}
