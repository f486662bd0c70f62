// Package export writes and reads the pipeline's output files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/okian/foodlca/internal/domain/model"
)

// Column names of the factor table file, in order.
const (
	ColCategory        = "category"
	ColCO2Total        = "co2_total_kgco2e_per_kg"
	ColProductionShare = "production_share_kgco2e_per_kg"
	ColSupplyShare     = "supply_chain_share_kgco2e_per_kg"
	ColProductionRatio = "production_ratio"
	ColLand            = "land_m2a_per_kg"
	ColWater           = "water_l_per_kg"
	ColMethod          = "method"
	ColRecords         = "records"
	ColCO2Source       = "co2_source"
	ColLandSource      = "land_source"
	ColWaterSource     = "water_source"
)

// FactorColumns returns the factor table header.
func FactorColumns() []string {
	return []string{
		ColCategory, ColCO2Total, ColProductionShare, ColSupplyShare, ColProductionRatio,
		ColLand, ColWater, ColMethod, ColRecords, ColCO2Source, ColLandSource, ColWaterSource,
	}
}

func factorRow(f model.CalibratedFactor) []string {
	return []string{
		string(f.Category),
		formatMeasure(f.CO2Total),
		formatMeasure(f.ProductionShare),
		formatMeasure(f.SupplyChainShare),
		formatFloat(f.ProductionRatio),
		formatMeasure(f.Land),
		formatMeasure(f.Water),
		string(f.Method),
		strconv.Itoa(f.Records),
		string(f.Source(model.QuantityCO2)),
		string(f.Source(model.QuantityLand)),
		string(f.Source(model.QuantityWater)),
	}
}

// WriteFactorTable writes t as CSV, one row per category in canonical order.
func WriteFactorTable(w io.Writer, t *model.FactorTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FactorColumns()); err != nil {
		return eris.Wrap(err, "write factor header")
	}
	for _, f := range t.Factors {
		if err := cw.Write(factorRow(f)); err != nil {
			return eris.Wrapf(err, "write factor %s", f.Category)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "flush factor table")
}

// SaveFactorTable writes t to path and its provenance to ProvenancePath(path).
func SaveFactorTable(path string, t *model.FactorTable) error {
	if err := writeFileAtomic(path, func(f *os.File) error { return WriteFactorTable(f, t) }); err != nil {
		return err
	}
	return SaveProvenance(ProvenancePath(path), t.Provenance)
}

// ReadFactorTable parses a factor table written by WriteFactorTable.
// Columns are located by header name so extra columns are ignored.
func ReadFactorTable(r io.Reader) (*model.FactorTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &model.FormatError{Message: "empty factor table"}
		}
		return nil, eris.Wrap(err, "read factor header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, c := range FactorColumns() {
		if _, ok := idx[c]; !ok {
			return nil, &model.FormatError{Row: 1, Column: c, Message: "missing column"}
		}
	}

	var factors []model.CalibratedFactor
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read factor row %d", row)
		}
		f, err := parseFactor(rec, idx)
		if err != nil {
			var fe *model.FormatError
			if errors.As(err, &fe) {
				fe.Row = row
				return nil, fe
			}
			return nil, &model.FormatError{Row: row, Message: err.Error(), Err: err}
		}
		factors = append(factors, f)
	}
	return model.NewFactorTable(factors, model.Provenance{}), nil
}

func parseFactor(rec []string, idx map[string]int) (model.CalibratedFactor, error) {
	get := func(col string) string {
		if i := idx[col]; i < len(rec) {
			return rec[i]
		}
		return ""
	}
	c, err := model.ParseCategory(get(ColCategory))
	if err != nil {
		return model.CalibratedFactor{}, &model.FormatError{Column: ColCategory, Message: err.Error(), Err: err}
	}
	f := model.CalibratedFactor{AggregatedFactor: model.AggregatedFactor{Category: c}}

	measures := []struct {
		col  string
		unit model.Unit
		dst  *model.Measure
	}{
		{ColCO2Total, model.UnitKgCO2ePerKg, &f.CO2Total},
		{ColProductionShare, model.UnitKgCO2ePerKg, &f.ProductionShare},
		{ColSupplyShare, model.UnitKgCO2ePerKg, &f.SupplyChainShare},
		{ColLand, model.UnitM2aPerKg, &f.Land},
		{ColWater, model.UnitLPerKg, &f.Water},
	}
	for _, m := range measures {
		v, err := parseMeasure(get(m.col), m.unit)
		if err != nil {
			return f, &model.FormatError{Column: m.col, Message: "invalid number", Context: get(m.col), Err: err}
		}
		*m.dst = v
	}
	if f.ProductionRatio, err = strconv.ParseFloat(get(ColProductionRatio), 64); err != nil {
		return f, &model.FormatError{Column: ColProductionRatio, Message: "invalid number", Context: get(ColProductionRatio), Err: err}
	}
	if f.Records, err = strconv.Atoi(get(ColRecords)); err != nil {
		return f, &model.FormatError{Column: ColRecords, Message: "invalid integer", Context: get(ColRecords), Err: err}
	}
	if s := get(ColMethod); s != "" {
		if f.Method, err = model.ParseMethod(s); err != nil {
			return f, &model.FormatError{Column: ColMethod, Message: err.Error(), Err: err}
		}
	}

	f.Sources = make(map[model.Quantity]model.ValueSource, 3)
	for q, col := range map[model.Quantity]string{
		model.QuantityCO2:   ColCO2Source,
		model.QuantityLand:  ColLandSource,
		model.QuantityWater: ColWaterSource,
	} {
		src := model.ValueSource(get(col))
		switch src {
		case model.SourceAggregated, model.SourceFallback, model.SourceMissing:
			f.Sources[q] = src
		default:
			return f, &model.FormatError{Column: col, Message: fmt.Sprintf("unknown value source %q", src)}
		}
	}
	return f, nil
}

// LoadFactorTable reads the factor table at path and, when present, its
// provenance sidecar.
func LoadFactorTable(path string) (*model.FactorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open factor table %s", path)
	}
	defer func() { _ = f.Close() }()

	t, err := ReadFactorTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	prov, err := LoadProvenance(ProvenancePath(path))
	switch {
	case err == nil:
		t.Provenance = prov
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	return t, nil
}
