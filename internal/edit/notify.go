package edit

import (
	"context"
	"sync"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/logging"
)

// Notification kinds.
const (
	KindShow    = "show"
	KindDismiss = "dismiss"
	KindAlert   = "alert"
)

// Notification is one message sent to the operator.
type Notification struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

// LogNotifier writes notifications to the structured log. It is the
// notifier of hosts with no operator UI.
type LogNotifier struct{}

func (LogNotifier) ShowBlocking(ctx context.Context, text, title string) {
	logging.FromContext(ctx).Info("operator notice", "title", title, "text", text)
}

func (LogNotifier) DismissBlocking(ctx context.Context, title string) {
	logging.FromContext(ctx).Debug("operator notice dismissed", "title", title)
}

func (LogNotifier) Alert(ctx context.Context, text string) {
	logging.FromContext(ctx).Warn("operator alert", "text", text)
}

// Recorder collects notifications in order. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) ShowBlocking(_ context.Context, text, title string) {
	r.add(Notification{Kind: KindShow, Title: title, Text: text})
}

func (r *Recorder) DismissBlocking(_ context.Context, title string) {
	r.add(Notification{Kind: KindDismiss, Title: title})
}

func (r *Recorder) Alert(_ context.Context, text string) {
	r.add(Notification{Kind: KindAlert, Text: text})
}

func (r *Recorder) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Alerts returns the text of every alert.
func (r *Recorder) Alerts() []string {
	var out []string
	for _, n := range r.Notifications() {
		if n.Kind == KindAlert {
			out = append(out, n.Text)
		}
	}
	return out
}

type notifierKey struct{}

// ContextWithNotifier returns a context whose edits also notify n. Hosts use it to
// collect the notifications of one request.
func ContextWithNotifier(ctx context.Context, n core.Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

// fanout delivers to the orchestrator's notifier and the request's one.
type fanout []core.Notifier

func (f fanout) ShowBlocking(ctx context.Context, text, title string) {
	for _, n := range f {
		n.ShowBlocking(ctx, text, title)
	}
}

func (f fanout) DismissBlocking(ctx context.Context, title string) {
	for _, n := range f {
		n.DismissBlocking(ctx, title)
	}
}

func (f fanout) Alert(ctx context.Context, text string) {
	for _, n := range f {
		n.Alert(ctx, text)
	}
}

func notifierFor(ctx context.Context, base core.Notifier) core.Notifier {
	extra, ok := ctx.Value(notifierKey{}).(core.Notifier)
	if !ok || extra == nil {
		return base
	}
	return fanout{base, extra}
}

var (
	_ core.Notifier = LogNotifier{}
	_ core.Notifier = (*Recorder)(nil)
)
