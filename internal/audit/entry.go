// Package audit keeps a journal of the operations that change a workbook.
//
// Every edit pass, configuration run, layer switch, template creation,
// seed, import and reset is recorded with the actor and client address
// that requested it. Journals are append-only; Prune drops entries past the
// retention window.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/provtab/internal/core"
)

// Action is the kind of operation an entry records.
type Action string

const (
	ActionEdit           Action = "edit"
	ActionConfigure      Action = "configure"
	ActionLayerEnable    Action = "layer_enable"
	ActionLayerDisable   Action = "layer_disable"
	ActionWorkflowCreate Action = "workflow_create"
	ActionSeed           Action = "seed"
	ActionImport         Action = "import"
	ActionReset          Action = "reset"
)

// Severity ranks entries for review.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Entry is one journal record.
type Entry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Severity  Severity  `json:"severity"`
	Sheet     string    `json:"sheet,omitempty"`
	Row       int       `json:"row,omitempty"`
	Column    string    `json:"column,omitempty"`
	Value     string    `json:"value,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Rows      int       `json:"rows,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Action Action
	Sheet  string
	Since  time.Time
	// Limit caps the result, newest first. Zero means DefaultLimit.
	Limit int
}

// DefaultLimit is the List limit when Filter.Limit is zero.
const DefaultLimit = 100

// MaxLimit bounds Filter.Limit.
const MaxLimit = 10000

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

func (f Filter) match(e Entry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Sheet != "" && e.Sheet != f.Sheet {
		return false
	}
	if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

// severityFor returns the severity of an action.
func severityFor(action Action) Severity {
	switch action {
	case ActionReset:
		return SeverityCritical
	case ActionImport, ActionSeed, ActionLayerDisable:
		return SeverityHigh
	case ActionWorkflowCreate, ActionLayerEnable:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// Journal stores entries.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	// List returns matching entries, newest first.
	List(ctx context.Context, f Filter) ([]Entry, error)
	// Prune deletes entries created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// complete fills the fields every entry carries: id, severity, time and
// the request metadata stored in ctx.
func complete(ctx context.Context, e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Severity == "" {
		e.Severity = severityFor(e.Action)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Actor == "" {
		e.Actor = core.ActorFromContext(ctx)
	}
	if e.IPAddress == "" {
		e.IPAddress = core.IPAddressFromContext(ctx)
	}
	return e
}
