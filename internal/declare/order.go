package declare

import (
	"fmt"
	"strings"
)

// Order sorts tables so every table follows the tables it references.
// Declaration order is kept wherever dependencies allow.
//
// registered reports tables that already exist outside tables; references
// to them impose no ordering. It may be nil. A reference to any other
// unknown table, a duplicate table name or a reference cycle is an error.
func Order(tables []Table, registered func(name string) bool) ([]Table, error) {
	byName := make(map[string]int, len(tables))
	for i, t := range tables {
		if _, dup := byName[t.Name]; dup {
			return nil, &Error{Table: t.Name, Message: "declared more than once", Pos: t.pos}
		}
		byName[t.Name] = i
	}

	graph := make(dependencyGraph, len(tables))
	nodes := make([]string, len(tables))
	for i, t := range tables {
		nodes[i] = t.Name
		graph[t.Name] = []string{}
		for _, c := range t.Columns {
			if c.References == "" {
				continue
			}
			if _, ok := byName[c.References]; ok {
				graph[t.Name] = append(graph[t.Name], c.References)
				continue
			}
			if registered == nil || !registered(c.References) {
				return nil, c.errorf(t.Name, "references unknown table %q", c.References)
			}
		}
	}

	for _, scc := range tarjanSCC(nodes, graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(earliestFirst(scc, byName), graph)
			first := tables[byName[path[0]]]
			return nil, &Error{
				Table:   first.Name,
				Message: "reference cycle " + strings.Join(path, " -> "),
				Pos:     first.pos,
			}
		}
	}

	ordered := make([]Table, 0, len(tables))
	placed := make(map[string]bool, len(tables))
	for len(ordered) < len(tables) {
		progressed := false
		for _, t := range tables {
			if placed[t.Name] || !ready(graph[t.Name], placed) {
				continue
			}
			ordered = append(ordered, t)
			placed[t.Name] = true
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("order tables: no progress after %d of %d", len(ordered), len(tables))
		}
	}
	return ordered, nil
}

func ready(deps []string, placed map[string]bool) bool {
	for _, d := range deps {
		if !placed[d] {
			return false
		}
	}
	return true
}

// earliestFirst rotates an SCC so its earliest declared table leads.
func earliestFirst(scc []string, byName map[string]int) []string {
	best := 0
	for i, n := range scc {
		if byName[n] < byName[scc[best]] {
			best = i
		}
	}
	return append(append([]string(nil), scc[best:]...), scc[:best]...)
}

// dependencyGraph maps a table to the tables it references.
type dependencyGraph map[string][]string

func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting nodes in the
// given order so results are deterministic.
func tarjanSCC(nodes []string, graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside the SCC from its first member
// back to itself.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
