package apikit

// SelfValidator is implemented by request types that check themselves once
// binding, defaults and constraint tags have passed.
type SelfValidator interface {
	Validate() error
}

// Validator checks every request of a router, after SelfValidator.
type Validator interface {
	Validate(req any) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(req any) error

// Validate calls f(req).
func (f ValidatorFunc) Validate(req any) error { return f(req) }
