package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sparhub/backend/internal/models"
)

func TestHTTPNotifierPostsBallotLink(t *testing.T) {
	var got ballotLinkPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ballot-link" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// nil Client exercises the default client path
	n := HTTPNotifier{BaseURL: srv.URL}
	link := models.BallotLink{Key: "abc", ExpiresAt: time.Now().Add(time.Hour)}
	member := models.Member{Email: "judge@example.com", Name: "Judge"}
	if err := n.SendBallotLink(context.Background(), member, link); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Key != "abc" || got.Email != "judge@example.com" || got.Name != "Judge" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestHTTPNotifierReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := HTTPNotifier{BaseURL: srv.URL, Client: srv.Client()}
	err := n.SendBallotLink(context.Background(), models.Member{}, models.BallotLink{})
	if err == nil {
		t.Fatal("expected an error on a 500 response")
	}
}
