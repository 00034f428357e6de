package column

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/roach88/uniorm/internal/value"
)

// codec holds the per-kind validation and conversion rules.
type codec interface {
	validate(v any) error
	toStorage(v any) (any, error)
	fromStorage(v any) (any, error)
}

var errUnsupported = errors.New("unsupported value type")

type textCodec struct{}

func (textCodec) validate(v any) error {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		if !utf8.ValidString(s) {
			return errors.New("string is not valid UTF-8")
		}
		return nil
	}
	return fmt.Errorf("expected string, got %T", v)
}

func (textCodec) toStorage(v any) (any, error) {
	return v, nil
}

func (textCodec) fromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := asText(v); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

type integerCodec struct{}

func (integerCodec) validate(v any) error {
	if v == nil || isInteger(v) {
		return nil
	}
	return fmt.Errorf("expected integer, got %T", v)
}

func (integerCodec) toStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return toInt64(v)
}

func (integerCodec) fromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return toInt64(v)
}

type realCodec struct{}

func (realCodec) validate(v any) error {
	switch f := v.(type) {
	case float64:
		return checkFinite(f)
	case float32:
		return checkFinite(float64(f))
	}
	return nil
}

func (realCodec) toStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(f); err != nil {
		return nil, err
	}
	return f, nil
}

// checkFinite rejects NaN and infinities. JSON has no encoding for them.
func checkFinite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%v is not a finite number", f)
	}
	return nil
}

func (realCodec) fromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return toFloat64(v)
}

type booleanCodec struct{}

func (booleanCodec) validate(any) error { return nil }

func (booleanCodec) toStorage(v any) (any, error) {
	if truthy(v) {
		return int64(1), nil
	}
	return int64(0), nil
}

func (booleanCodec) fromStorage(v any) (any, error) {
	return storedTruthy(v), nil
}

// timestampLayouts are tried in order when reading timestamps. The naive
// layouts cover rows written without an offset; they are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

type timestampCodec struct{}

func (timestampCodec) validate(any) error { return nil }

func (timestampCodec) toStorage(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.Format(time.RFC3339Nano), nil
	}
	return nil, fmt.Errorf("expected time.Time, got %T", v)
}

func (timestampCodec) fromStorage(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t, nil
	}
	s, ok := asText(v)
	if !ok {
		return nil, fmt.Errorf("expected timestamp text, got %T", v)
	}
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

type jsonCodec struct{}

func (jsonCodec) validate(v any) error {
	if v == nil {
		return nil
	}
	_, err := value.From(v)
	return err
}

func (jsonCodec) toStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	jv, err := value.From(v)
	if err != nil {
		return nil, err
	}
	data, err := value.Marshal(jv)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (jsonCodec) fromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := asText(v)
	if !ok {
		return nil, fmt.Errorf("expected JSON text, got %T", v)
	}
	if s == "" {
		return nil, nil
	}
	return value.Decode([]byte(s))
}

type foreignKeyCodec struct {
	target Target
}

func (c foreignKeyCodec) validate(v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case Ref:
		if val.Row != nil {
			return c.validateRow(val.Row)
		}
		return nil
	case Row:
		return c.validateRow(val)
	}
	if isInteger(v) {
		return nil
	}
	return fmt.Errorf("expected identifier or %s row, got %T", c.targetName(), v)
}

func (c foreignKeyCodec) validateRow(row Row) error {
	if row.TableName() != c.targetName() {
		return fmt.Errorf("expected %s row, got %s row", c.targetName(), row.TableName())
	}
	if _, ok := row.ID(); !ok {
		return fmt.Errorf("referenced %s row has no primary key", row.TableName())
	}
	return nil
}

func (c foreignKeyCodec) targetName() string {
	if c.target == nil {
		return "<nil>"
	}
	return c.target.Name()
}

func (c foreignKeyCodec) toStorage(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Ref:
		if val.Row != nil {
			return rowID(val.Row)
		}
		return val.ID, nil
	case Row:
		return rowID(val)
	}
	if isInteger(v) {
		return toInt64(v)
	}
	return nil, fmt.Errorf("%w: %T", errUnsupported, v)
}

func rowID(row Row) (any, error) {
	id, ok := row.ID()
	if !ok {
		return nil, fmt.Errorf("referenced %s row has no primary key", row.TableName())
	}
	return id, nil
}

func (c foreignKeyCodec) fromStorage(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Ref:
		return val, nil
	case Row:
		return Resolved(val), nil
	}
	id, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return Unresolved(id), nil
}
