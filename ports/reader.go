package ports

import (
	"context"

	"adpulse/domain/campaign"
)

// SeriesReader loads daily campaign series from an external source into
// the typed input bundle the evaluation engine consumes.
type SeriesReader interface {
	ReadAccountData(ctx context.Context) (*campaign.AccountData, error)
}
