// Package source reads the product-level LCA database into raw records.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

const ctxCheckEvery = 1024

// Load opens path, parses it and closes it again, also on parse failure.
func Load(ctx context.Context, path string, opts ...Option) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open database %s", path)
	}
	defer f.Close()

	recs, err := Parse(ctx, f, opts...)
	if err != nil {
		var fe *model.FormatError
		if errors.As(err, &fe) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, eris.Wrapf(err, "read database %s", path)
	}
	return recs, nil
}

// Parse turns database bytes into records. It has no side effects beyond
// logging and metrics.
func Parse(ctx context.Context, r io.Reader, opts ...Option) ([]model.RawRecord, error) {
	s := defaults()
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("source")
	}
	start := time.Now()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read input")
	}
	data, fellBack, err := decode(raw, s.fallback)
	if err != nil {
		metrics.RecordStageError("load", "encoding")
		return nil, &model.FormatError{Message: "undecodable input", Err: err}
	}
	if fellBack {
		metrics.RecordEncodingFallback()
		s.logger.Warn(ctx, "input is not UTF-8, decoded with fallback encoding")
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = s.delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for i := 0; i < s.skipRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, headerError(err, fmt.Sprintf("metadata row %d", i+1))
		}
	}
	header, err := cr.Read()
	if err != nil {
		return nil, headerError(err, "header row")
	}

	var (
		out      []model.RawRecord
		rejected int
	)
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &model.FormatError{Row: pe.Line, Message: "malformed CSV", Err: err}
			}
			return nil, eris.Wrap(err, "read row")
		}
		row, _ := cr.FieldPos(0)
		if blank(cells) {
			continue
		}
		if len(cells) < s.minColumns {
			fe := &model.FormatError{
				Row:     row,
				Message: fmt.Sprintf("row has %d columns, want at least %d", len(cells), s.minColumns),
				Context: strings.Join(cells, string(s.delimiter)),
			}
			metrics.RecordRowRejected()
			if !s.skipMalformed {
				return nil, fe
			}
			rejected++
			s.logger.Warn(ctx, "skipping malformed row", logger.Error(fe))
			continue
		}
		out = append(out, toRecord(row, cells, s.layout))
	}

	metrics.RecordRecordsParsed(len(out))
	metrics.RecordStageDuration("load", float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "database parsed",
		logger.Int("records", len(out)),
		logger.Int("rejected", rejected),
		logger.Int("header_columns", len(header)),
		logger.Bool("encoding_fallback", fellBack),
	)
	return out, nil
}

func headerError(err error, what string) error {
	if errors.Is(err, io.EOF) {
		return &model.FormatError{Message: "input ends before " + what}
	}
	return &model.FormatError{Message: "cannot read " + what, Err: err}
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func measure(cells []string, i int, u model.Unit) model.Measure {
	if v, ok := ParseNumber(cell(cells, i)); ok {
		return model.Known(v, u)
	}
	return model.Missing(u)
}

func toRecord(row int, cells []string, l Layout) model.RawRecord {
	rec := model.RawRecord{
		Row:      row,
		Names:    make([]string, len(l.Names)),
		NevoCode: cell(cells, l.NevoCode),
		UnitTag:  cell(cells, l.Unit),
		CO2:      measure(cells, l.CO2, model.UnitKgCO2ePerKg),
		Land:     measure(cells, l.Land, model.UnitM2aPerKg),
		Water:    measure(cells, l.Water, model.UnitM3PerKg),
	}
	for i, idx := range l.Names {
		rec.Names[i] = cell(cells, idx)
	}
	for _, idx := range l.Group {
		if g := cell(cells, idx); g != "" {
			rec.Group = g
			break
		}
	}
	return rec
}
