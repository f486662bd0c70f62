package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/okian/foodlca/internal/domain/model"
)

// ProvenancePath returns the sidecar path for a factor table file:
// factors.csv becomes factors.provenance.json.
func ProvenancePath(tablePath string) string {
	return strings.TrimSuffix(tablePath, filepath.Ext(tablePath)) + ".provenance.json"
}

// WriteProvenance writes p as indented JSON with a trailing newline.
func WriteProvenance(w io.Writer, p model.Provenance) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(p), "encode provenance")
}

// SaveProvenance writes p to path.
func SaveProvenance(path string, p model.Provenance) error {
	return writeFileAtomic(path, func(f *os.File) error { return WriteProvenance(f, p) })
}

// LoadProvenance reads a sidecar written by SaveProvenance. A missing file
// yields an error matching os.ErrNotExist.
func LoadProvenance(path string) (model.Provenance, error) {
	var p model.Provenance
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, fmt.Errorf("provenance %s: %w", path, err)
	}
	if err != nil {
		return p, eris.Wrapf(err, "read provenance %s", path)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, &model.FormatError{Message: "invalid provenance " + path, Err: err}
	}
	return p, nil
}
