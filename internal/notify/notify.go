package notify

import (
	"context"

	"github.com/sparhub/backend/internal/models"
)

// Notifier delivers a ballot link to an adjudicator after a draw is
// confirmed. Delivery is best-effort; the link stays valid either way.
type Notifier interface {
	SendBallotLink(ctx context.Context, recipient models.Member, link models.BallotLink) error
}
