package column

import (
	"reflect"

	"github.com/roach88/uniorm/internal/dialect"
)

// Kind names a column type.
type Kind string

const (
	KindText       Kind = "text"
	KindInteger    Kind = "integer"
	KindReal       Kind = "real"
	KindBoolean    Kind = "boolean"
	KindTimestamp  Kind = "timestamp"
	KindJSON       Kind = "json"
	KindForeignKey Kind = "foreign_key"
)

// Target identifies the table a foreign key column references.
type Target interface {
	Name() string
}

// Row is a persisted row that a foreign key can point at.
type Row interface {
	TableName() string
	ID() (int64, bool)
}

// Spec is one column's type, constraints, default and conversion rules.
//
// A Spec holds no data. It is immutable once built and may be shared by any
// number of schemas.
type Spec struct {
	kind       Kind
	storage    dialect.StorageType
	primaryKey bool
	unique     bool
	notNull    bool
	hasDefault bool
	def        any
	target     Target
	codec      codec
}

// Option configures a Spec at construction.
type Option func(*Spec)

// PrimaryKey marks the column as the engine-assigned primary key.
func PrimaryKey() Option {
	return func(s *Spec) { s.primaryKey = true }
}

// Unique adds a UNIQUE constraint.
func Unique() Option {
	return func(s *Spec) { s.unique = true }
}

// NotNull adds a NOT NULL constraint.
func NotNull() Option {
	return func(s *Spec) { s.notNull = true }
}

// Default sets the value used when a write supplies nil.
//
// A func() any is evaluated on every write and never embedded in the table
// definition. Any other value is a literal and also becomes the column's
// DEFAULT clause.
func Default(v any) Option {
	return func(s *Spec) {
		s.hasDefault = true
		s.def = v
	}
}

func newSpec(kind Kind, storage dialect.StorageType, c codec, opts []Option) *Spec {
	s := &Spec{kind: kind, storage: storage, codec: c}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Text declares a text column holding Go strings.
func Text(opts ...Option) *Spec {
	return newSpec(KindText, dialect.Text, textCodec{}, opts)
}

// Integer declares an integer column holding int64.
func Integer(opts ...Option) *Spec {
	return newSpec(KindInteger, dialect.Integer, integerCodec{}, opts)
}

// Real declares a floating-point column holding float64.
func Real(opts ...Option) *Spec {
	return newSpec(KindReal, dialect.Real, realCodec{}, opts)
}

// Boolean declares a boolean column stored as 1/0.
func Boolean(opts ...Option) *Spec {
	return newSpec(KindBoolean, dialect.Integer, booleanCodec{}, opts)
}

// Timestamp declares a time.Time column stored as RFC 3339 text.
func Timestamp(opts ...Option) *Spec {
	return newSpec(KindTimestamp, dialect.Text, timestampCodec{}, opts)
}

// JSON declares a structured column holding value.Value, stored as JSON text.
func JSON(opts ...Option) *Spec {
	return newSpec(KindJSON, dialect.Text, jsonCodec{}, opts)
}

// ForeignKey declares an integer column referencing target's primary key.
// Its application value is a Ref.
func ForeignKey(target Target, opts ...Option) *Spec {
	s := newSpec(KindForeignKey, dialect.Integer, nil, opts)
	s.target = target
	s.codec = foreignKeyCodec{target: target}
	return s
}

// Kind returns the column type.
func (s *Spec) Kind() Kind { return s.kind }

// StorageType returns the backend-neutral storage class.
func (s *Spec) StorageType() dialect.StorageType { return s.storage }

// IsPrimaryKey reports whether the column is the primary key.
func (s *Spec) IsPrimaryKey() bool { return s.primaryKey }

// IsUnique reports whether the column carries a UNIQUE constraint.
func (s *Spec) IsUnique() bool { return s.unique }

// IsNotNull reports whether the column carries a NOT NULL constraint.
func (s *Spec) IsNotNull() bool { return s.notNull }

// Target returns the referenced table for foreign keys, nil otherwise.
func (s *Spec) Target() Target { return s.target }

// HasDefault reports whether a default was declared.
func (s *Spec) HasDefault() bool { return s.hasDefault }

// DefaultValue returns the default for a new write, calling a generator
// default each time.
func (s *Spec) DefaultValue() any {
	if gen, ok := s.def.(func() any); ok {
		return gen()
	}
	return s.def
}

// literalDefault returns the default when it is a literal.
func (s *Spec) literalDefault() (any, bool) {
	if !s.hasDefault || s.def == nil {
		return nil, false
	}
	if _, ok := s.def.(func() any); ok {
		return nil, false
	}
	return s.def, true
}

// Validate checks v against the column's accepted application values.
func (s *Spec) Validate(v any) error {
	if err := s.codec.validate(v); err != nil {
		return s.invalid("", v, err)
	}
	return nil
}

// ToStorage converts an application value to its storage representation:
// nil, int64, float64 or string.
func (s *Spec) ToStorage(v any) (any, error) {
	out, err := s.codec.toStorage(v)
	if err != nil {
		return nil, s.invalid("", v, err)
	}
	return out, nil
}

// FromStorage converts a value read from the backend to its application
// representation.
func (s *Spec) FromStorage(v any) (any, error) {
	out, err := s.codec.fromStorage(v)
	if err != nil {
		return nil, s.invalid("", v, err)
	}
	return out, nil
}

// Prepare readies a value for writing to column name: nil is replaced by
// the default, the result is validated and converted to storage.
func (s *Spec) Prepare(name string, v any) (any, error) {
	if v == nil && s.hasDefault {
		v = s.DefaultValue()
	}
	if err := s.codec.validate(v); err != nil {
		return nil, s.invalid(name, v, err)
	}
	out, err := s.codec.toStorage(v)
	if err != nil {
		return nil, s.invalid(name, v, err)
	}
	return out, nil
}

// Normalize runs Prepare and converts the result back, yielding the
// application value exactly as a later read would return it.
func (s *Spec) Normalize(name string, v any) (any, error) {
	stored, err := s.Prepare(name, v)
	if err != nil {
		return nil, err
	}
	out, err := s.codec.fromStorage(stored)
	if err != nil {
		return nil, s.invalid(name, stored, err)
	}
	return out, nil
}

func (s *Spec) invalid(name string, v any, err error) *ValidationError {
	return &ValidationError{Column: name, Kind: s.kind, Value: v, Reason: err.Error()}
}

// Equivalent reports whether two specs declare the same column. Generator
// defaults cannot be compared, so any two generators are treated as equal.
func (s *Spec) Equivalent(o *Spec) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.kind != o.kind || s.primaryKey != o.primaryKey || s.unique != o.unique ||
		s.notNull != o.notNull || s.hasDefault != o.hasDefault {
		return false
	}
	if (s.target == nil) != (o.target == nil) {
		return false
	}
	if s.target != nil && s.target.Name() != o.target.Name() {
		return false
	}
	_, sGen := s.def.(func() any)
	_, oGen := o.def.(func() any)
	if sGen || oGen {
		return sGen == oGen
	}
	return reflect.DeepEqual(s.def, o.def)
}
