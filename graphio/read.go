// Package graphio loads graph files into adjacency matrices and exports
// closed graphs.
//
// Two input formats are supported: a whitespace-separated 0/1 grid with
// one row per line, and an edge list with one "u<sep>v" pair per line.
// The matrix dimension is derived from the file itself: the row count
// for grids, the largest vertex id plus one for edge lists.
package graphio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/unixpickle/dist-closure/closure"
)

var (
	// ErrEmptyInput is returned for inputs that describe no
	// vertices at all.
	ErrEmptyInput = errors.New("graphio: empty input")

	// ErrRaggedRow is returned when an adjacency row's width
	// disagrees with the row count.
	ErrRaggedRow = errors.New("graphio: ragged adjacency row")

	// ErrBadFlag is returned for adjacency entries other than
	// 0 and 1.
	ErrBadFlag = errors.New("graphio: adjacency entries must be 0 or 1")

	// ErrBadVertex is returned for malformed or negative
	// vertex ids in an edge list.
	ErrBadVertex = errors.New("graphio: bad vertex id")
)

// ReadAdjacency parses a dense adjacency grid.
//
// The dimension is the number of non-blank lines; every
// line must then hold exactly that many 0/1 fields.
func ReadAdjacency(r io.Reader) (*closure.Matrix, error) {
	var rows [][]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	n := len(rows)
	m := closure.NewMatrix(n)
	for i, fields := range rows {
		if len(fields) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w",
				i, len(fields), n, ErrRaggedRow)
		}
		for j, field := range fields {
			switch field {
			case "0":
			case "1":
				m.Set(i, j, true)
			default:
				return nil, fmt.Errorf("row %d column %d is %q: %w",
					i, j, field, ErrBadFlag)
			}
		}
	}
	return m, nil
}

// ReadPairs parses an edge list with one sep-separated
// "u<sep>v" pair per non-blank line.
//
// Vertex ids start at 0, so the dimension is the largest
// id seen plus one.
func ReadPairs(r io.Reader, sep string) (*closure.Matrix, error) {
	type edge struct {
		from, to int
	}
	var edges []edge
	maxID := -1

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, sep)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: want one %q-separated pair: %w",
				line, sep, ErrBadVertex)
		}
		var ids [2]int
		for i, part := range parts {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id < 0 {
				return nil, fmt.Errorf("line %d: %q: %w", line, part, ErrBadVertex)
			}
			ids[i] = id
			if id > maxID {
				maxID = id
			}
		}
		edges = append(edges, edge{from: ids[0], to: ids[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if maxID < 0 {
		return nil, ErrEmptyInput
	}

	m := closure.NewMatrix(maxID + 1)
	for _, e := range edges {
		m.Set(e.from, e.to, true)
	}
	return m, nil
}
