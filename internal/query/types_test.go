package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uniorm/internal/column"
)

func TestSealedStatements(t *testing.T) {
	stmts := []Statement{
		CreateTable{}, TableExists{}, Insert{}, Update{}, Delete{}, Select{},
	}
	assert.Len(t, stmts, 6)

	preds := []Predicate{Equal{}, And{}}
	assert.Len(t, preds, 2)
}

func TestAllEqual(t *testing.T) {
	assert.Nil(t, AllEqual())

	one := AllEqual(Assignment{Column: "a", Value: 1})
	assert.Equal(t, Equal{Column: "a", Value: 1}, one)

	two := AllEqual(Assignment{Column: "b", Value: 2}, Assignment{Column: "a", Value: 1})
	require.IsType(t, And{}, two)
	assert.Equal(t, []string{"b", "a"}, Columns(two))
}

func TestNames(t *testing.T) {
	got := Names([]Assignment{{Column: "z"}, {Column: "a"}})
	assert.Equal(t, []string{"z", "a"}, got)
}

func TestValidate(t *testing.T) {
	where := Equal{Column: "id", Value: 1}

	tests := []struct {
		name    string
		stmt    Statement
		wantErr bool
	}{
		{"nil", nil, true},
		{"create ok", CreateTable{Table: "t", Columns: []Column{{Name: "id", Spec: column.Integer(column.PrimaryKey())}}}, false},
		{"create no columns", CreateTable{Table: "t"}, true},
		{"create duplicate", CreateTable{Table: "t", Columns: []Column{{Name: "a", Spec: column.Text()}, {Name: "a", Spec: column.Text()}}}, true},
		{"exists no table", TableExists{}, true},
		{"insert empty values", Insert{Table: "t"}, false},
		{"insert duplicate", Insert{Table: "t", Values: []Assignment{{Column: "a"}, {Column: "a"}}}, true},
		{"update ok", Update{Table: "t", Set: []Assignment{{Column: "a", Value: 1}}, Where: where}, false},
		{"update nothing", Update{Table: "t", Where: where}, true},
		{"select all", Select{Table: "t"}, false},
		{"select empty column", Select{Table: "t", Columns: []string{""}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.stmt)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_EmptyFilter(t *testing.T) {
	set := []Assignment{{Column: "a", Value: 1}}

	assert.ErrorIs(t, Validate(Update{Table: "t", Set: set}), ErrEmptyFilter)
	assert.ErrorIs(t, Validate(Update{Table: "t", Set: set, Where: And{}}), ErrEmptyFilter)
	assert.ErrorIs(t, Validate(Delete{Table: "t"}), ErrEmptyFilter)
	assert.NoError(t, Validate(Delete{Table: "t", Where: Equal{Column: "id", Value: 1}}))
}
