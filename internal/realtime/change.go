// Package realtime publishes row-insert events and delivers them to filtered subscribers.
package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventInsert is the only event type the feed emits.
const EventInsert = "INSERT"

// Change is a single row event on a watched table.
type Change struct {
	Table           string          `json:"table"`
	Event           string          `json:"event"`
	Record          json.RawMessage `json:"record"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`

	// keys holds the routing values of the watched columns.
	keys map[string]string
}

// Handler receives changes matching a subscription.
type Handler func(Change)

// NewChange builds an insert event for record, keyed by the given columns.
func NewChange(table string, record any, columns ...string) (Change, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return Change{}, fmt.Errorf("marshal %s record: %w", table, err)
	}
	c := Change{
		Table:           table,
		Event:           EventInsert,
		Record:          raw,
		CommitTimestamp: time.Now().UTC(),
	}
	if len(columns) == 0 {
		return c, nil
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return Change{}, err
	}
	c.keys = make(map[string]string, len(columns))
	for _, col := range columns {
		if v, ok := fields[col]; ok && v != nil {
			c.keys[col] = fmt.Sprint(v)
		}
	}
	return c, nil
}

// Decode unmarshals the record into v.
func (c Change) Decode(v any) error {
	return json.Unmarshal(c.Record, v)
}

func decodeFields(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return fields, nil
}

// ErrInvalidFilter is returned for filters not in the column=eq.value form.
var ErrInvalidFilter = errors.New("filter must have the form column=eq.value")

// Filter restricts a subscription to rows whose Column equals Value.
type Filter struct {
	Column string
	Value  string
}

// ParseFilter parses "column=eq.value". An empty string matches every row.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Filter{}, nil
	}
	col, rest, ok := strings.Cut(s, "=")
	if !ok {
		return Filter{}, ErrInvalidFilter
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	col = strings.TrimSpace(col)
	if !ok || col == "" || val == "" {
		return Filter{}, ErrInvalidFilter
	}
	return Filter{Column: col, Value: val}, nil
}

// Eq builds a filter matching column=value.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: fmt.Sprint(value)}
}

func (f Filter) IsZero() bool { return f.Column == "" }

func (f Filter) String() string {
	if f.IsZero() {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Matches reports whether the change's record satisfies the filter.
func (f Filter) Matches(c Change) bool {
	if f.IsZero() {
		return true
	}
	if v, ok := c.keys[f.Column]; ok {
		return v == f.Value
	}
	fields, err := decodeFields(c.Record)
	if err != nil {
		return false
	}
	v, ok := fields[f.Column]
	return ok && v != nil && fmt.Sprint(v) == f.Value
}
