package cli

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const library = "testdata/library.yaml"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// decode parses a JSON response, decoding its data into data.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func TestApply(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "apply", library)
	require.NoError(t, err)
	assert.Contains(t, out, "Author [id name]")
	assert.Contains(t, out, "Book [id title author available rating]")

	out, _, err = execute(t, "apply", library, "--format", "json")
	require.NoError(t, err)
	var tables []TableInfo
	resp := decode(t, out, &tables)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, tables, 2)
	assert.Equal(t, TableInfo{Name: "Author", PrimaryKey: "id", Columns: []string{"id", "name"}}, tables[0])
	assert.Equal(t, []string{"Author"}, tables[1].References)
}

func TestApply_MissingDeclarations(t *testing.T) {
	isolate(t)

	_, stderr, err := execute(t, "apply", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, WasReported(err))
	assert.Contains(t, stderr, "Error [E_COMMAND]")
}

func TestRecordCommands(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "create", library, "Author", "--set", "name=Herbert")
	require.NoError(t, err)
	assert.Equal(t, "id=1 name=\"Herbert\"\n", out)

	out, _, err = execute(t, "create", library, "Book", "--set", "title=Dune", "--set", "author=1")
	require.NoError(t, err)
	assert.Equal(t, "id=1 title=\"Dune\" author=1 available=true rating=null\n", out)

	out, _, err = execute(t, "list", library, "Book")
	require.NoError(t, err)
	assert.Equal(t, "id=1 title=\"Dune\" author=1 available=true rating=null\n", out)

	out, _, err = execute(t, "find", library, "Author", "--where", "name=Herbert", "--format", "json")
	require.NoError(t, err)
	var author map[string]any
	decode(t, out, &author)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "Herbert"}, author)

	out, _, err = execute(t, "find", library, "Author", "--where", "name=Nobody")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, _, err = execute(t, "find", library, "Book", "--where", "rating=null", "--format", "json")
	require.NoError(t, err)
	var book map[string]any
	decode(t, out, &book)
	assert.Equal(t, "Dune", book["title"])
	assert.Nil(t, book["rating"])
}

func TestRecordCommands_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		exit int
		code string
	}{
		{"undeclared table", []string{"list", library, "Nope"}, ExitCommandError, "E_COMMAND"},
		{"unknown column", []string{"create", library, "Author", "--set", "nick=x"}, ExitCommandError, "E_COMMAND"},
		{"malformed assignment", []string{"create", library, "Author", "--set", "name"}, ExitCommandError, "E_COMMAND"},
		{"unparseable value", []string{"find", library, "Book", "--where", "author=one"}, ExitCommandError, "E_COMMAND"},
		{"empty filter", []string{"find", library, "Author"}, ExitFailure, "INVALID_ARGUMENT"},
		{"not null violated", []string{"create", library, "Author"}, ExitFailure, "E_FAILURE"},
		{"wrong type", []string{"create", library, "Book", "--set", "title=x", "--set", "rating=high"}, ExitCommandError, "E_COMMAND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, append(tc.args, "--format", "json")...)
			require.Error(t, err)
			assert.Equal(t, tc.exit, GetExitCode(err))
			resp := decode(t, out, nil)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestView(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "create", library, "Author", "--set", "name=Herbert")
	require.NoError(t, err)
	_, _, err = execute(t, "create", library, "Book", "--set", "title=Dune", "--set", "author=1")
	require.NoError(t, err)
	_, _, err = execute(t, "create", library, "Book", "--set", "title=Anonymous")
	require.NoError(t, err)

	out, _, err := execute(t, "view", library, "Book", "--select", "title,author", "--join", "author:Author:name")
	require.NoError(t, err)
	assert.Equal(t, "title=\"Dune\" author=1 name=\"Herbert\"\ntitle=\"Anonymous\" author=null name=null\n", out)

	out, _, err = execute(t, "view", library, "Book", "--join", "author:Author", "--name", "Catalog", "--format", "json")
	require.NoError(t, err)
	var result ViewResult
	decode(t, out, &result)
	assert.Equal(t, "Catalog", result.Name)
	assert.Equal(t, []string{"id", "title", "author", "available", "rating", "Author.id", "name"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Herbert", result.Rows[0]["name"])
	assert.Equal(t, float64(1), result.Rows[0]["Author.id"])
}

func TestView_InvalidJoin(t *testing.T) {
	isolate(t)

	_, stderr, err := execute(t, "view", library, "Book", "--join", "title:Author")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "not a foreign key")

	_, _, err = execute(t, "view", library, "Book", "--join", "author")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid join")
}

func TestHistory(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "history")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, _, err = execute(t, "create", library, "Author", "--set", "name=Herbert")
	require.NoError(t, err)
	_, _, err = execute(t, "create", library, "Book", "--set", "title=Dune", "--set", "author=1")
	require.NoError(t, err)

	out, _, err = execute(t, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `INSERT Author {"name":"Herbert"}`)
	assert.Contains(t, lines[1], `INSERT Book {"author":1,"available":1,"rating":null,"title":"Dune"}`)

	out, _, err = execute(t, "history", "--table", "Book", "--format", "json")
	require.NoError(t, err)
	var entries []HistoryEntry
	decode(t, out, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "INSERT", entries[0].Action)
	assert.Equal(t, []string{"title", "author", "available", "rating"}, entries[0].Keys)
	assert.JSONEq(t, `{"author":1,"available":1,"rating":null,"title":"Dune"}`, string(entries[0].Values))

	out, _, err = execute(t, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "INSERT Book")
	assert.NotContains(t, out, "INSERT Author")
}
