package calibrate

import "github.com/okian/foodlca/pkg/logger"

// Option configures a Session.
type Option func(*Session)

// WithPolicy replaces the default policy.
func WithPolicy(p Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithID sets the session identifier used in logs.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
