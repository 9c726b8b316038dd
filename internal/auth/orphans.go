package auth

import (
	"context"

	"github.com/vidfriends/appcore/internal/logging"
)

// OrphanRecorder is told about accounts that exist without a profile document.
type OrphanRecorder interface {
	RecordOrphan(ctx context.Context, accountID string, cause error)
}

// LogOrphans records orphaned accounts as error logs for later reconciliation.
type LogOrphans struct{}

func (LogOrphans) RecordOrphan(ctx context.Context, accountID string, cause error) {
	logging.FromContext(ctx).Error("account created without profile document",
		"orphaned_account_id", accountID,
		"error", cause,
	)
}
