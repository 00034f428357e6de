package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/orm"
	"github.com/roach88/uniorm/internal/value"
)

// nullLiteral is the command-line spelling of a null value.
const nullLiteral = "null"

// parseAssignments converts "column=value" arguments into application
// values, parsing each value according to its column's kind.
func parseAssignments(s *orm.Schema, pairs []string) (orm.Values, error) {
	out := make(orm.Values, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (want column=value)", pair)
		}
		spec, declared := s.Column(name)
		if !declared {
			return nil, fmt.Errorf("%s has no column %q", s.Name(), name)
		}
		v, err := parseValue(spec.Kind(), raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func parseValue(kind column.Kind, raw string) (any, error) {
	if raw == nullLiteral {
		return nil, nil
	}
	switch kind {
	case column.KindInteger, column.KindForeignKey:
		return strconv.ParseInt(raw, 10, 64)
	case column.KindReal:
		return strconv.ParseFloat(raw, 64)
	case column.KindBoolean:
		return strconv.ParseBool(raw)
	case column.KindTimestamp:
		return time.Parse(time.RFC3339Nano, raw)
	case column.KindJSON:
		return value.Decode([]byte(raw))
	}
	return raw, nil
}

// parseJoin parses "column:Target" or "column:Target:col1,col2".
func parseJoin(spec string) (source, target string, cols []string, err error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return "", "", nil, fmt.Errorf("invalid join %q (want column:Target[:col,...])", spec)
	}
	if len(parts) == 3 && parts[2] != "" {
		cols = strings.Split(parts[2], ",")
	}
	return parts[0], parts[1], cols, nil
}

// recordData renders a record as JSON-friendly values.
func recordData(rec *orm.Record) map[string]any {
	out := make(map[string]any)
	for k, v := range rec.Values() {
		out[k] = plainValue(v)
	}
	return out
}

// recordLine renders a record as "col=value" pairs in column order.
func recordLine(rec *orm.Record) string {
	cols := rec.Schema().Columns()
	parts := make([]string, len(cols))
	for i, c := range cols {
		v, _ := rec.Get(c)
		parts[i] = c + "=" + textValue(v)
	}
	return strings.Join(parts, " ")
}

func plainValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case column.Ref:
		return x.ID
	case value.Value:
		return value.Native(x)
	}
	return v
}

func textValue(v any) string {
	switch x := plainValue(v).(type) {
	case nil:
		return nullLiteral
	case string:
		return strconv.Quote(x)
	default:
		if jv, ok := v.(value.Value); ok {
			if data, err := value.Marshal(jv); err == nil {
				return string(data)
			}
		}
		return fmt.Sprint(x)
	}
}
