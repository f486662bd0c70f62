package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/okian/foodlca/internal/domain/calibrate"
	"github.com/okian/foodlca/internal/domain/units"
)

// Report row kinds.
const (
	KindCategory = "category"
	KindGroup    = "group"
	KindTotal    = "total"
)

// ReportColumns returns the calibration report header. Emission columns are
// in ktCO2e per year.
func ReportColumns() []string {
	return []string{"kind", "name", "basis", "simulated_kt", "target_kt", "error_pct", "adjustment", "share_pct", "tier"}
}

type reportRow struct {
	kind, name            string
	simulated, target     float64
	errPct, adj, sharePct float64
	hasTarget, hasShare   bool
	tier                  string
}

func (r reportRow) strings(basis string) []string {
	out := []string{r.kind, r.name, basis, formatFloat(units.KgToKilotonnes(r.simulated)), NA, NA, NA, NA, r.tier}
	if r.hasTarget {
		out[4] = formatFloat(units.KgToKilotonnes(r.target))
		out[5] = formatFloat(r.errPct)
		out[6] = formatFloat(r.adj)
	}
	if r.hasShare {
		out[7] = formatFloat(r.sharePct)
	}
	return out
}

func reportRows(rep calibrate.Report) []reportRow {
	rows := make([]reportRow, 0, len(rep.Categories)+len(rep.Groups)+1)
	for _, c := range rep.Categories {
		rows = append(rows, reportRow{kind: KindCategory, name: string(c.Category), simulated: c.Simulated, sharePct: c.SharePct, hasShare: true})
	}
	for _, g := range rep.Groups {
		rows = append(rows, reportRow{
			kind: KindGroup, name: g.Name, simulated: g.Simulated, target: g.Target,
			errPct: g.ErrorPct, adj: g.Adjustment, hasTarget: true,
		})
	}
	t := rep.Total
	rows = append(rows, reportRow{
		kind: KindTotal, name: "total", simulated: t.Simulated, target: t.Target,
		errPct: t.ErrorPct, adj: t.Adjustment, hasTarget: true, sharePct: 100, hasShare: true, tier: string(t.Tier),
	})
	return rows
}

// WriteReport writes the calibration report: category rows, then group
// rows, then one total row.
func WriteReport(w io.Writer, rep calibrate.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportColumns()); err != nil {
		return eris.Wrap(err, "write report header")
	}
	for _, r := range reportRows(rep) {
		if err := cw.Write(r.strings(string(rep.Basis))); err != nil {
			return eris.Wrapf(err, "write report row %s", r.name)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "flush report")
}

// SaveReport writes the report to path.
func SaveReport(path string, rep calibrate.Report) error {
	return writeFileAtomic(path, func(f *os.File) error { return WriteReport(f, rep) })
}
