package export

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/okian/foodlca/internal/domain/model"
)

// NA is written for a missing value.
const NA = "NA"

// precision is the fixed number of decimals written for every float so that
// reruns over the same input produce byte-identical files.
const precision = 6

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if s == "-0."+strings.Repeat("0", precision) {
		s = s[1:]
	}
	return s
}

func formatMeasure(m model.Measure) string {
	if !m.Present {
		return NA
	}
	return formatFloat(m.Value)
}

func parseMeasure(s string, u model.Unit) (model.Measure, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == NA {
		return model.Missing(u), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Measure{}, err
	}
	return model.Known(v, u), nil
}

// writeFileAtomic writes via a temporary file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrapf(err, "create temp file for %s", path)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return eris.Wrapf(err, "close %s", tmp.Name())
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrapf(err, "chmod %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "rename into %s", path)
	}
	return nil
}
