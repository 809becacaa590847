package notify

import (
	"context"
	"sync"

	"github.com/sparhub/backend/internal/models"
)

// MockNotifier records deliveries instead of sending them. Used when no
// NOTIFY_URL is configured and in tests.
type MockNotifier struct {
	mu   sync.Mutex
	sent []models.BallotLink
}

func (m *MockNotifier) SendBallotLink(ctx context.Context, recipient models.Member, link models.BallotLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, link)
	return nil
}

func (m *MockNotifier) Sent() []models.BallotLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.BallotLink, len(m.sent))
	copy(out, m.sent)
	return out
}
