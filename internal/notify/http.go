package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sparhub/backend/internal/models"
)

// HTTPNotifier posts ballot links to an external delivery service (mail
// relay, chat bot, whatever operations wired up).
type HTTPNotifier struct {
	BaseURL string
	Client  *http.Client
}

type ballotLinkPayload struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h HTTPNotifier) SendBallotLink(ctx context.Context, recipient models.Member, link models.BallotLink) error {
	// h is a copy, so an assignment to h.Client would not stick
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	payload := ballotLinkPayload{
		Email:     recipient.Email,
		Name:      recipient.Name,
		Key:       link.Key,
		ExpiresAt: link.ExpiresAt,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/ballot-link", bytes.NewBuffer(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("notify service error")
	}
	return nil
}
