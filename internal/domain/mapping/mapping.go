// Package mapping assigns raw records to food categories with a declarative
// include/exclude rule table.
package mapping

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/foodlca/internal/domain/dedupe"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

// Rule assigns a record to Category when any name contains an Include term
// and no name contains an Exclude term. Matching is case-insensitive.
type Rule struct {
	Category model.Category
	Include  []string
	Exclude  []string
}

// MatchSet is the deduplicated list of records matched by one rule, in
// source order.
type MatchSet struct {
	Category   model.Category
	Records    []model.RawRecord
	Duplicates int
}

// Empty reports whether no record matched.
func (s MatchSet) Empty() bool { return len(s.Records) == 0 }

type compiled struct {
	rule    Rule
	include []string
	exclude []string
}

// Mapper applies a validated rule table to records.
type Mapper struct {
	rules  []compiled
	fold   bool
	logger logger.Logger
}

// NewMapper validates rules and prepares them for matching.
func NewMapper(rules []Rule, opts ...Option) (*Mapper, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("mapping")
	}
	m.rules = make([]compiled, len(rules))
	for i, r := range rules {
		m.rules[i] = compiled{rule: r, include: m.normalizeAll(r.Include), exclude: m.normalizeAll(r.Exclude)}
	}
	return m, nil
}

// ValidateRules rejects unknown or duplicate categories, empty include lists
// and blank terms.
func ValidateRules(rules []Rule) error {
	seen := make(map[model.Category]struct{}, len(rules))
	for i, r := range rules {
		if !r.Category.Valid() {
			return fmt.Errorf("rule %d: %w: %q", i, model.ErrUnknownCategory, r.Category)
		}
		if _, dup := seen[r.Category]; dup {
			return fmt.Errorf("rule %d: duplicate category %s", i, r.Category)
		}
		seen[r.Category] = struct{}{}
		if len(r.Include) == 0 {
			return fmt.Errorf("rule %d: %s has no include terms", i, r.Category)
		}
		for _, t := range append(append([]string{}, r.Include...), r.Exclude...) {
			if strings.TrimSpace(t) == "" {
				return fmt.Errorf("rule %d: %s has a blank term", i, r.Category)
			}
		}
	}
	return nil
}

// MergeRules replaces the rules in base whose category appears in overrides
// and appends overrides for categories base does not have.
func MergeRules(base, overrides []Rule) []Rule {
	idx := make(map[model.Category]int, len(base))
	out := make([]Rule, len(base))
	copy(out, base)
	for i, r := range out {
		idx[r.Category] = i
	}
	for _, o := range overrides {
		if i, ok := idx[o.Category]; ok {
			out[i] = o
			continue
		}
		idx[o.Category] = len(out)
		out = append(out, o)
	}
	return out
}

// Map returns one match set per rule, in rule order. Records may land in
// several sets; within a set a repeated product name is kept only once.
func (m *Mapper) Map(ctx context.Context, records []model.RawRecord) ([]MatchSet, error) {
	start := time.Now()
	names := make([][]string, len(records))
	for i, rec := range records {
		names[i] = m.normalizeAll(rec.Names)
	}

	sets := make([]MatchSet, len(m.rules))
	d := dedupe.NewInMemoryDeduper(dedupe.WithKeyFunc(m.dedupeKey), dedupe.WithCapacity(len(records)))
	for i, c := range m.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.Reset()
		set := MatchSet{Category: c.rule.Category}
		for j, rec := range records {
			if !matches(c, names[j]) {
				continue
			}
			if d.SeenAndRecord(ctx, rec.PrimaryName()) {
				set.Duplicates++
				continue
			}
			set.Records = append(set.Records, rec)
		}
		sets[i] = set

		metrics.UpdateMatchSetSize(string(set.Category), len(set.Records))
		if set.Empty() {
			m.logger.Warn(ctx, "no records matched category", logger.String("category", string(set.Category)))
			continue
		}
		m.logger.Debug(ctx, "category matched",
			logger.String("category", string(set.Category)),
			logger.Int("records", len(set.Records)),
			logger.Int("duplicates", set.Duplicates),
		)
	}

	metrics.RecordStageDuration("map", float64(time.Since(start).Milliseconds()))
	m.logger.Info(ctx, "records mapped to categories",
		logger.Int("records", len(records)),
		logger.Int("categories", len(sets)),
	)
	return sets, nil
}

// Match reports whether rec satisfies rule under this mapper's normalisation.
func (m *Mapper) Match(rule Rule, rec model.RawRecord) bool {
	c := compiled{rule: rule, include: m.normalizeAll(rule.Include), exclude: m.normalizeAll(rule.Exclude)}
	return matches(c, m.normalizeAll(rec.Names))
}

// Match reports whether rec satisfies rule with case-insensitive matching.
func Match(rule Rule, rec model.RawRecord) bool {
	return (&Mapper{}).Match(rule, rec)
}

func matches(c compiled, names []string) bool {
	hit := false
	for _, n := range names {
		if containsAny(n, c.include) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, n := range names {
		if containsAny(n, c.exclude) {
			return false
		}
	}
	return true
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func (m *Mapper) normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !m.fold {
		return s
	}
	// transform.Chain is stateful, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func (m *Mapper) normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := m.normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (m *Mapper) dedupeKey(name string) string {
	return dedupe.NormalizeName(m.normalize(name))
}
