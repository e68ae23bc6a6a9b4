// Package loader reads a mega file into typed rows and partitions them into
// one team subset and one subset per player.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pable/go-cog-metrics/internal/model"
)

// DefaultGroupingColumn is the column that names the row's entity.
const DefaultGroupingColumn = "Row"

// Schema describes how headers map onto columns.
type Schema struct {
	GroupingColumn string
}

// DefaultSchema uses the "Row" grouping column.
func DefaultSchema() Schema {
	return Schema{GroupingColumn: DefaultGroupingColumn}
}

var fixedHeaders = map[string]model.Column{
	"timeline":        model.ColumnTimeline,
	"start time":      model.ColumnStartTime,
	"start_time":      model.ColumnStartTime,
	"duration":        model.ColumnDuration,
	"instance number": model.ColumnInstance,
	"instance":        model.ColumnInstance,
	"shot location":   model.ColumnShotLocation,
	"shot_location":   model.ColumnShotLocation,
	"shot outcome":    model.ColumnShotOutcome,
	"shot_outcome":    model.ColumnShotOutcome,
	"shot result":     model.ColumnShotOutcome,
	"shot specific":   model.ColumnShotSpecific,
	"shot_specific":   model.ColumnShotSpecific,
	"shot type":       model.ColumnShotSpecific,
}

// Table is a loaded mega file.
type Table struct {
	Rows    []model.Row
	Headers []string

	present map[model.Column]bool
}

// Has reports whether column c was present in the file.
func (t *Table) Has(c model.Column) bool {
	return t.present[c]
}

// Load parses CSV content. The grouping column is required; every other known
// column is optional and unknown columns are ignored.
func Load(r io.Reader, schema Schema) (*Table, error) {
	if schema.GroupingColumn == "" {
		schema.GroupingColumn = DefaultGroupingColumn
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", model.ErrSchema)
	}
	if err != nil {
		return nil, readErr("read header", err)
	}

	index, present := mapHeaders(header, schema)
	if !present[model.ColumnGroup] {
		return nil, fmt.Errorf("%w: grouping column %q not found", model.ErrSchema, schema.GroupingColumn)
	}

	t := &Table{Headers: header, present: present}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readErr("read row", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, buildRow(line, rec, index))
	}
	return t, nil
}

// readErr classifies a csv.Reader failure. Malformed CSV is a schema error;
// anything else came from the underlying reader, e.g. a truncated stream.
func readErr(what string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("%w: %s: %w", model.ErrSchema, what, err)
	}
	return fmt.Errorf("%w: %s: %w", model.ErrIO, what, err)
}

// mapHeaders returns column -> record index, plus which columns exist.
// The first occurrence of a duplicated header wins.
func mapHeaders(header []string, schema Schema) (map[model.Column]int, map[model.Column]bool) {
	index := make(map[model.Column]int)
	present := make(map[model.Column]bool)
	group := strings.ToLower(strings.TrimSpace(schema.GroupingColumn))

	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(h))

		var (
			col model.Column
			ok  bool
		)
		switch {
		case key == group:
			col, ok = model.ColumnGroup, true
		default:
			col, ok = fixedHeaders[key]
			if !ok {
				var c model.Category
				if c, ok = model.MatchCategoryHeader(key); ok {
					col = model.CategoryColumn(c)
				}
			}
		}
		if !ok || present[col] {
			continue
		}
		index[col] = i
		present[col] = true
	}
	return index, present
}

func buildRow(line int, rec []string, index map[model.Column]int) model.Row {
	get := func(c model.Column) string {
		i, ok := index[c]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	row := model.Row{
		Line:           line,
		Group:          get(model.ColumnGroup),
		Timeline:       get(model.ColumnTimeline),
		StartTime:      get(model.ColumnStartTime),
		Duration:       get(model.ColumnDuration),
		InstanceNumber: get(model.ColumnInstance),
		ShotLocation:   get(model.ColumnShotLocation),
		ShotOutcome:    get(model.ColumnShotOutcome),
		ShotSpecific:   get(model.ColumnShotSpecific),
	}
	for _, c := range model.Categories() {
		row.Categories[c] = get(model.CategoryColumn(c))
	}
	return row
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
