package column

import (
	"strconv"
	"strings"

	"github.com/roach88/uniorm/internal/dialect"
)

// Definition returns the column clause of a CREATE TABLE statement:
// quoted name, storage type and constraints, then the literal default.
// Generator defaults are evaluated at write time and never appear here.
func (s *Spec) Definition(name string, d dialect.Dialect) string {
	lit, hasLit := s.defaultLiteral()

	var b strings.Builder
	b.WriteString(d.QuoteIdent(name))
	b.WriteByte(' ')
	b.WriteString(d.TypeName(s.storage, s.unique || hasLit))

	if s.primaryKey {
		b.WriteString(" PRIMARY KEY ")
		b.WriteString(d.AutoIncrement())
	}
	if s.unique {
		b.WriteString(" UNIQUE")
	}
	if s.notNull {
		b.WriteString(" NOT NULL")
	}
	if hasLit {
		b.WriteString(" DEFAULT ")
		b.WriteString(lit)
	}
	return b.String()
}

// CheckDefault reports whether a literal default converts to storage.
func (s *Spec) CheckDefault(name string) error {
	def, ok := s.literalDefault()
	if !ok {
		return nil
	}
	_, err := s.Prepare(name, def)
	return err
}

func (s *Spec) defaultLiteral() (string, bool) {
	def, ok := s.literalDefault()
	if !ok {
		return "", false
	}
	stored, err := s.codec.toStorage(def)
	if err != nil || stored == nil {
		return "", false
	}
	switch v := stored.(type) {
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", true
	}
	return "", false
}
