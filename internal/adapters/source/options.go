package source

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/okian/foodlca/pkg/logger"
)

// Layout maps record fields to zero-based column indexes. A negative index
// means the column is absent.
type Layout struct {
	Names    []int
	Group    []int // first non-empty wins
	NevoCode int
	Unit     int
	CO2      int
	Land     int
	Water    int
}

// DefaultLayout is the RIVM "Database milieubelasting voedingsmiddelen" export:
// product (NL); unit; effect category; GHG; acidification; freshwater and
// marine eutrophication; land use; water; NEVO code, names and groups.
func DefaultLayout() Layout {
	return Layout{
		Names:    []int{0, 10, 12},
		Group:    []int{13, 11},
		NevoCode: 9,
		Unit:     1,
		CO2:      3,
		Land:     7,
		Water:    8,
	}
}

type settings struct {
	delimiter     rune
	skipRows      int
	minColumns    int
	layout        Layout
	fallback      encoding.Encoding
	skipMalformed bool
	logger        logger.Logger
}

func defaults() settings {
	return settings{
		delimiter:  ';',
		skipRows:   2,
		minColumns: 9,
		layout:     DefaultLayout(),
		fallback:   charmap.Windows1252,
	}
}

// Option configures Parse and Load.
type Option func(*settings)

// WithDelimiter sets the field delimiter.
func WithDelimiter(r rune) Option {
	return func(s *settings) {
		if r != 0 {
			s.delimiter = r
		}
	}
}

// WithSkipRows sets the number of metadata rows before the header row.
func WithSkipRows(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.skipRows = n
		}
	}
}

// WithMinColumns sets the minimum cell count of a data row.
func WithMinColumns(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.minColumns = n
		}
	}
}

// WithLayout overrides the column layout.
func WithLayout(l Layout) Option {
	return func(s *settings) { s.layout = l }
}

// WithFallbackEncoding sets the encoding tried when input is not UTF-8.
// nil disables the fallback.
func WithFallbackEncoding(enc encoding.Encoding) Option {
	return func(s *settings) { s.fallback = enc }
}

// WithSkipMalformed logs and drops short rows instead of failing.
func WithSkipMalformed(skip bool) Option {
	return func(s *settings) { s.skipMalformed = skip }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
