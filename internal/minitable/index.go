// Package minitable locates, creates and expands mini tables: contiguous
// runs of rows that share one group id and have exactly one header row.
package minitable

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/provtab/internal/core"
)

var (
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrDuplicateWorkflow = errors.New("duplicate workflow name")
	ErrGroupReused       = errors.New("group id reused")
	ErrNoSteps           = errors.New("workflow has no steps")
	ErrEmptyName         = errors.New("workflow name is required")
)

// NewGroupID returns a fresh group id.
func NewGroupID() string {
	return uuid.NewString()
}

// Interval is the extent of one mini table, in 1-based data rows.
// Rows between Start and End belong to the group even when their id cell
// is blank.
type Interval struct {
	GroupID string `json:"groupId"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Len returns the number of rows in the interval.
func (iv Interval) Len() int { return iv.End - iv.Start + 1 }

// GroupIndex maps group ids to their row intervals.
type GroupIndex struct {
	byID  map[string]Interval
	order []string
}

// BuildGroupIndex scans a key column once. ids[0] is data row 1. Blank
// cells extend the current run; an id that reappears after another id
// started is reported as ErrGroupReused.
func BuildGroupIndex(ids []string) (GroupIndex, error) {
	idx := GroupIndex{byID: make(map[string]Interval)}
	current := ""

	for i, raw := range ids {
		id := core.CleanCell(raw)
		if id == "" {
			continue
		}
		row := i + 1

		if iv, seen := idx.byID[id]; seen {
			if id != current {
				return GroupIndex{}, fmt.Errorf("%w: %s at row %d, first run is rows %d-%d",
					ErrGroupReused, id, row, iv.Start, iv.End)
			}
			iv.End = row
			idx.byID[id] = iv
		} else {
			idx.byID[id] = Interval{GroupID: id, Start: row, End: row}
			idx.order = append(idx.order, id)
		}
		current = id
	}
	return idx, nil
}

// Extent returns the interval of a group.
func (g GroupIndex) Extent(id string) (Interval, bool) {
	iv, ok := g.byID[id]
	return iv, ok
}

// Contains reports whether id is present.
func (g GroupIndex) Contains(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Intervals returns every interval in row order.
func (g GroupIndex) Intervals() []Interval {
	out := make([]Interval, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.byID[id])
	}
	return out
}

// Len returns the number of groups.
func (g GroupIndex) Len() int { return len(g.order) }

// column extracts one 0-based column from rows.
func column(rows [][]string, i int) []string {
	out := make([]string, len(rows))
	for r, row := range rows {
		out[r] = core.CellAt(row, i)
	}
	return out
}
