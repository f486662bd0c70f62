package export

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/okian/foodlca/internal/domain/calibrate"
	"github.com/okian/foodlca/internal/domain/model"
)

var sqliteSchema = []string{
	`DROP TABLE IF EXISTS factors`,
	`DROP TABLE IF EXISTS calibration`,
	`DROP TABLE IF EXISTS provenance`,
	`CREATE TABLE factors (
		category TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		co2_total_kgco2e_per_kg REAL,
		production_share_kgco2e_per_kg REAL,
		supply_chain_share_kgco2e_per_kg REAL,
		production_ratio REAL NOT NULL,
		land_m2a_per_kg REAL,
		water_l_per_kg REAL,
		method TEXT,
		records INTEGER NOT NULL,
		co2_source TEXT NOT NULL,
		land_source TEXT NOT NULL,
		water_source TEXT NOT NULL
	)`,
	`CREATE TABLE calibration (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		basis TEXT NOT NULL,
		simulated_kt REAL,
		target_kt REAL,
		error_pct REAL,
		adjustment REAL,
		share_pct REAL,
		tier TEXT
	)`,
	`CREATE TABLE provenance (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	`CREATE INDEX idx_calibration_kind ON calibration(kind)`,
}

// WriteSQLite replaces the database at path with a snapshot of t and, when
// rep is non-nil, the calibration report.
func WriteSQLite(ctx context.Context, path string, t *model.FactorTable, rep *calibrate.Report) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create directory %s", dir)
	}
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrapf(err, "open sqlite %s", path)
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = eris.Wrap(cerr, "close sqlite")
		}
	}()

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "apply schema %q", strings.Fields(stmt)[0:3])
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin snapshot")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = insertFactors(ctx, tx, t); err != nil {
		return err
	}
	if err = insertProvenance(ctx, tx, t.Provenance); err != nil {
		return err
	}
	if rep != nil {
		if err = insertReport(ctx, tx, *rep); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(), "commit snapshot")
}

func nullable(m model.Measure) any {
	if !m.Present {
		return nil
	}
	return m.Value
}

func insertFactors(ctx context.Context, tx *sql.Tx, t *model.FactorTable) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO factors (`+strings.Join(append([]string{ColCategory, "position"}, FactorColumns()[1:]...), ",")+
		`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return eris.Wrap(err, "prepare factor insert")
	}
	defer stmt.Close()
	for i, f := range t.Factors {
		if _, err := stmt.ExecContext(ctx,
			string(f.Category), i,
			nullable(f.CO2Total), nullable(f.ProductionShare), nullable(f.SupplyChainShare),
			f.ProductionRatio, nullable(f.Land), nullable(f.Water),
			string(f.Method), f.Records,
			string(f.Source(model.QuantityCO2)), string(f.Source(model.QuantityLand)), string(f.Source(model.QuantityWater)),
		); err != nil {
			return eris.Wrapf(err, "insert factor %s", f.Category)
		}
	}
	return nil
}

func insertProvenance(ctx context.Context, tx *sql.Tx, p model.Provenance) error {
	var b strings.Builder
	if err := WriteProvenance(&b, p); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO provenance (key, value) VALUES (?, ?), (?, ?)`,
		"run_id", p.RunID, "json", strings.TrimSpace(b.String()))
	return eris.Wrap(err, "insert provenance")
}

func insertReport(ctx context.Context, tx *sql.Tx, rep calibrate.Report) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO calibration (`+strings.Join(ReportColumns(), ",")+`) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return eris.Wrap(err, "prepare calibration insert")
	}
	defer stmt.Close()
	for _, r := range reportRows(rep) {
		vals := r.strings(string(rep.Basis))
		args := make([]any, len(vals))
		for i, v := range vals {
			switch {
			case v == NA:
				args[i] = nil
			case i == 8 && v == "":
				args[i] = nil
			default:
				args[i] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "insert calibration row %s", r.name)
		}
	}
	return nil
}
