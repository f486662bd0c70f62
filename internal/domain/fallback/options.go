package fallback

import "github.com/okian/foodlca/pkg/logger"

// Option configures a Resolver.
type Option func(*Resolver)

// WithRequire controls whether an unfillable gap is an error (true) or is
// left Missing with a warning (false).
func WithRequire(require bool) Option {
	return func(r *Resolver) { r.require = require }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
