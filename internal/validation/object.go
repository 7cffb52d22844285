package validation

import "context"

// Func is one semantic validator. It reports business-rule violations as an
// error tree and reserves the error return for infrastructure failures
// (store round-trips), which abort the pipeline.
type Func[T any] func(ctx context.Context, doc T) (Errors, error)

// Result is the outcome of a validation run. An invalid result carries the
// error tree; a valid one carries the normalized document.
type Result[T any] struct {
	Valid  bool   `json:"__success"`
	Doc    T      `json:"value,omitempty"`
	Errors Errors `json:"errors,omitempty"`
}

// Object validates one document type: normalization first, then structural
// checks, then every registered semantic validator. Semantic validators all
// run even when structural checks fail; each one guards its own structural
// prerequisites.
type Object[T any] struct {
	structural *Structural
	normalize  func(T)
	overrides  map[string]string
	checks     []Func[T]
}

// Option configures an Object validator.
type Option[T any] func(*Object[T])

// WithNormalizer sets the mutation applied before any check runs.
func WithNormalizer[T any](fn func(T)) Option[T] {
	return func(o *Object[T]) { o.normalize = fn }
}

// WithMessages overrides structural messages, keyed by
// "<dotted field path without indices>.<tag>". T appears only in the
// return type, so call sites must instantiate it explicitly.
func WithMessages[T any](overrides map[string]string) Option[T] {
	return func(o *Object[T]) { o.overrides = overrides }
}

// NewObject builds a validator for one document type.
func NewObject[T any](structural *Structural, opts ...Option[T]) *Object[T] {
	o := &Object[T]{structural: structural}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register appends semantic validators; they run in registration order.
func (o *Object[T]) Register(checks ...Func[T]) {
	o.checks = append(o.checks, checks...)
}

// Validate runs the full pipeline over doc. Violations come back inside the
// Result; the error return is reserved for store failures.
func (o *Object[T]) Validate(ctx context.Context, doc T) (*Result[T], error) {
	if o.normalize != nil {
		o.normalize(doc)
	}
	errs, err := o.structural.Check(doc, o.overrides)
	if err != nil {
		return nil, err
	}
	for _, check := range o.checks {
		more, err := check(ctx, doc)
		if err != nil {
			return nil, err
		}
		errs.Merge(more)
	}
	if len(errs) > 0 {
		return &Result[T]{Valid: false, Errors: errs}, nil
	}
	return &Result[T]{Valid: true, Doc: doc}, nil
}
