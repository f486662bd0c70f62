package mapping

import "github.com/okian/foodlca/pkg/logger"

// Option configures a Mapper.
type Option func(*Mapper)

// WithFoldAccents makes matching ignore diacritics, so "creme" matches "crème".
func WithFoldAccents(fold bool) Option {
	return func(m *Mapper) { m.fold = fold }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Mapper) {
		if l != nil {
			m.logger = l
		}
	}
}
