package audit

import (
	"context"

	"github.com/JonMunkholm/provtab/internal/logging"
)

// Log records e in j after filling its id, severity, time and request
// metadata. A nil journal is a no-op. Failures are logged, not returned:
// the audited operation has already happened.
func Log(ctx context.Context, j Journal, e Entry) {
	if j == nil {
		return
	}
	e = complete(ctx, e)
	if err := j.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Error("audit: record failed",
			"action", e.Action,
			"sheet", e.Sheet,
			"error", err,
		)
	}
}
