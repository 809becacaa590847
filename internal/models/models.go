package models

import (
	"encoding/json"
	"time"
)

type Series struct {
	ID        int64     `json:"-"`
	PublicID  string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Member struct {
	ID       int64  `json:"id"`
	SeriesID int64  `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type Spar struct {
	ID          int64     `json:"-"`
	PublicID    string    `json:"id"`
	SeriesID    int64     `json:"-"`
	IsOpen      bool      `json:"is_open"`
	ReleaseDraw bool      `json:"release_draw"`
	CreatedAt   time.Time `json:"created_at"`
}

type Signup struct {
	ID                int64  `json:"-"`
	SparID            int64  `json:"-"`
	MemberID          int64  `json:"member_id"`
	AsJudge           bool   `json:"as_judge"`
	AsSpeaker         bool   `json:"as_speaker"`
	PartnerPreference *int64 `json:"partner_preference,omitempty"`
}

// DraftDraw holds one candidate allocation for a spar. Data is NULL while
// the background solve is still running and is set exactly once.
type DraftDraw struct {
	ID        int64           `json:"-"`
	PublicID  string          `json:"id"`
	SparID    int64           `json:"-"`
	Version   int64           `json:"version"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (d DraftDraw) Ready() bool { return len(d.Data) > 0 }

type Room struct {
	ID     int64  `json:"-"`
	SparID int64  `json:"-"`
	Label  string `json:"label"`
}

type Team struct {
	ID       int64  `json:"-"`
	RoomID   int64  `json:"-"`
	Position string `json:"position"`
}

type Speaker struct {
	ID       int64 `json:"-"`
	TeamID   int64 `json:"-"`
	MemberID int64 `json:"member_id"`
}

type Adjudicator struct {
	ID       int64 `json:"-"`
	RoomID   int64 `json:"-"`
	MemberID int64 `json:"member_id"`
}

// BallotLink is a capability URL key handed to one adjudicator for one room.
type BallotLink struct {
	ID        int64     `json:"-"`
	Key       string    `json:"key"`
	RoomID    int64     `json:"-"`
	MemberID  int64     `json:"member_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Scoresheet is the ballot payload: the four teams in table order, each
// with its speakers and their marks.
type Scoresheet struct {
	Teams []ScoresheetTeam `json:"teams"`
}

type ScoresheetTeam struct {
	Position string         `json:"position"`
	Speakers []SpeakerScore `json:"speakers"`
}

func (t ScoresheetTeam) Total() int64 {
	var sum int64
	for _, sp := range t.Speakers {
		sum += sp.Score
	}
	return sum
}

type SpeakerScore struct {
	MemberID int64 `json:"member_id"`
	Score    int64 `json:"score"`
}

type Ballot struct {
	ID          int64           `json:"-"`
	RoomID      int64           `json:"-"`
	SubmittedBy int64           `json:"submitted_by"`
	Scoresheet  json.RawMessage `json:"scoresheet"`
	CreatedAt   time.Time       `json:"created_at"`
}
