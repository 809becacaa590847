package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sparhub/backend/internal/db"
	"github.com/sparhub/backend/internal/models"
)

const (
	MinSpeakerScore = 50
	MaxSpeakerScore = 100
)

var (
	ErrLinkNotFound     = errors.New("ballot link not found")
	ErrLinkExpired      = errors.New("ballot link has expired")
	ErrAlreadySubmitted = errors.New("ballot already submitted for this link")
)

// BallotError is a rejected scoresheet. Like CapacityError it is the
// submitter's to fix.
type BallotError struct {
	Reason string
}

func (e *BallotError) Error() string { return e.Reason }

// SubmitBallot validates a scoresheet against the room it was issued for
// and records it. The first ballot per room becomes canonical; a second
// ballot through the same link is rejected.
func SubmitBallot(ctx context.Context, store *db.Store, key string, sheet models.Scoresheet) (models.Ballot, error) {
	link, err := store.GetBallotLink(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ballot{}, ErrLinkNotFound
		}
		return models.Ballot{}, err
	}
	if time.Now().After(link.ExpiresAt) {
		return models.Ballot{}, ErrLinkExpired
	}

	teams, err := store.GetRoomTeams(ctx, link.RoomID)
	if err != nil {
		return models.Ballot{}, err
	}
	if err := validateScoresheet(sheet, teams); err != nil {
		return models.Ballot{}, err
	}

	data, err := json.Marshal(sheet)
	if err != nil {
		return models.Ballot{}, err
	}
	ballot, err := store.CreateBallot(ctx, link.RoomID, link.MemberID, data)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.Ballot{}, ErrAlreadySubmitted
		}
		return models.Ballot{}, err
	}
	return ballot, nil
}

func validateScoresheet(sheet models.Scoresheet, teams map[string][]int64) error {
	if len(sheet.Teams) != 4 {
		return &BallotError{Reason: fmt.Sprintf("scoresheet must cover exactly 4 teams, got %d", len(sheet.Teams))}
	}

	totals := map[string]int64{}
	for _, team := range sheet.Teams {
		expected, ok := teams[team.Position]
		if !ok {
			return &BallotError{Reason: fmt.Sprintf("unknown team position %q", team.Position)}
		}
		if _, dup := totals[team.Position]; dup {
			return &BallotError{Reason: fmt.Sprintf("duplicate team position %q", team.Position)}
		}
		if len(team.Speakers) < 1 || len(team.Speakers) > 2 {
			return &BallotError{Reason: fmt.Sprintf("team %s must have 1 or 2 speakers", team.Position)}
		}
		if len(team.Speakers) != len(expected) {
			return &BallotError{Reason: fmt.Sprintf("team %s has %d speakers in the draw, scoresheet lists %d", team.Position, len(expected), len(team.Speakers))}
		}
		onTeam := map[int64]bool{}
		for _, id := range expected {
			onTeam[id] = true
		}
		seen := map[int64]bool{}
		for _, sp := range team.Speakers {
			if !onTeam[sp.MemberID] {
				return &BallotError{Reason: fmt.Sprintf("member %d is not on team %s", sp.MemberID, team.Position)}
			}
			if seen[sp.MemberID] {
				return &BallotError{Reason: fmt.Sprintf("member %d scored twice", sp.MemberID)}
			}
			seen[sp.MemberID] = true
			if sp.Score < MinSpeakerScore || sp.Score > MaxSpeakerScore {
				return &BallotError{Reason: fmt.Sprintf("score %d for member %d out of range [%d, %d]", sp.Score, sp.MemberID, MinSpeakerScore, MaxSpeakerScore)}
			}
		}
		totals[team.Position] = team.Total()
	}
	if len(totals) != 4 {
		return &BallotError{Reason: "scoresheet must cover all four team positions"}
	}

	positions := []string{"og", "oo", "cg", "co"}
	for i := 0; i < len(positions); i++ {
		for q := i + 1; q < len(positions); q++ {
			if totals[positions[i]] == totals[positions[q]] {
				return &BallotError{Reason: fmt.Sprintf("teams %s and %s are tied on %d, ballots must produce a strict ranking", positions[i], positions[q], totals[positions[i]])}
			}
		}
	}
	return nil
}
