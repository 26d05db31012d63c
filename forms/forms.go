// Package forms builds validated form handles from a struct type whose
// `validate` tags are the schema. One Factory per form type holds the
// defaults; every Form it creates keeps those initial values apart from the
// live, editable ones.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-auth-client/internal/utils"
)

// Mode selects when a form validates.
type Mode int

const (
	// ModeOnChange validates after every Set.
	ModeOnChange Mode = iota + 1
	// ModeOnSubmit validates only on Validate and Submit.
	ModeOnSubmit
)

func (m Mode) String() string {
	switch m {
	case ModeOnChange:
		return "onChange"
	case ModeOnSubmit:
		return "onSubmit"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config is the optional secondary configuration of a factory. Fields left
// nil keep the factory's defaults.
type Config struct {
	Mode      *Mode
	Validator *validator.Validate
}

type Option func(*Config)

// WithConfig merges cfg into the factory configuration field by field.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		if cfg.Mode != nil {
			c.Mode = cfg.Mode
		}
		if cfg.Validator != nil {
			c.Validator = cfg.Validator
		}
	}
}

func WithMode(m Mode) Option {
	return func(c *Config) {
		c.Mode = utils.Ptr(m)
	}
}

func WithValidator(v *validator.Validate) Option {
	return func(c *Config) {
		c.Validator = v
	}
}

// Factory creates forms for T.
type Factory[T any] struct {
	defaults T
	mode     Mode
	validate *validator.Validate
}

// NewFactory returns a factory whose forms start from defaults. T must be a
// struct type.
func NewFactory[T any](defaults T, options ...Option) (*Factory[T], error) {
	if reflect.TypeOf(defaults) == nil || reflect.TypeOf(defaults).Kind() != reflect.Struct {
		return nil, errors.New("[NewFactory] form values must be a struct")
	}

	cfg := Config{}
	for _, opt := range options {
		opt(&cfg)
	}

	f := &Factory[T]{
		defaults: utils.DeepClone(defaults),
		mode:     utils.Value(cfg.Mode),
		validate: cfg.Validator,
	}
	if f.mode == 0 {
		f.mode = ModeOnChange
	}
	if f.validate == nil {
		f.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return f, nil
}

func (f *Factory[T]) Mode() Mode {
	return f.mode
}

// New returns a form starting from initial, or from the factory defaults if
// initial is nil. The form shares no slices or maps with either.
func (f *Factory[T]) New(initial *T) *Form[T] {
	start := f.defaults
	if initial != nil {
		start = *initial
	}
	return &Form[T]{
		factory:  f,
		defaults: utils.DeepClone(start),
		values:   utils.DeepClone(start),
		errors:   map[string]string{},
	}
}

// Form is a controlled form handle. Values holds what the user typed;
// Defaults the values the form was created with.
type Form[T any] struct {
	factory *Factory[T]

	mu       sync.RWMutex
	defaults T
	values   T
	errors   map[string]string
	touched  bool
}

func (f *Form[T]) Values() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return utils.DeepClone(f.values)
}

// Defaults returns the values the form was created with. They never change.
func (f *Form[T]) Defaults() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return utils.DeepClone(f.defaults)
}

func (f *Form[T]) Mode() Mode {
	return f.factory.mode
}

// Set applies fn to the live values. In ModeOnChange the form is validated
// right after.
func (f *Form[T]) Set(fn func(*T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.values)
	f.touched = true
	if f.factory.mode == ModeOnChange {
		f.errors = f.validateLocked()
	}
}

// Reset restores the live values to the defaults and drops all errors.
func (f *Form[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = utils.DeepClone(f.defaults)
	f.errors = map[string]string{}
	f.touched = false
}

// Dirty reports whether the live values differ from the defaults.
func (f *Form[T]) Dirty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !reflect.DeepEqual(f.values, f.defaults)
}

// Touched reports whether Set was called since creation or the last Reset.
func (f *Form[T]) Touched() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.touched
}

// Errors returns the last validation result keyed by field namespace.
func (f *Form[T]) Errors() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.copyErrorsLocked()
}

func (f *Form[T]) Valid() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.errors) == 0
}

// Validate checks the live values regardless of mode.
func (f *Form[T]) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = f.validateLocked()
	if len(f.errors) > 0 {
		return &ValidationError{Fields: f.copyErrorsLocked()}
	}
	return nil
}

// Submit validates the form and calls fn with the values if they are valid.
func (f *Form[T]) Submit(fn func(T) error) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return fn(f.Values())
}

func (f *Form[T]) validateLocked() map[string]string {
	err := f.factory.validate.Struct(f.values)
	if err == nil {
		return map[string]string{}
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		out[e.Namespace()] = formatFieldError(e)
	}
	return out
}

func (f *Form[T]) copyErrorsLocked() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}
