package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sparhub/backend/internal/db"
	"github.com/sparhub/backend/internal/models"
	"github.com/sparhub/backend/internal/rating"
)

var positionIndex = map[string]int{"og": 0, "oo": 1, "cg": 2, "co": 3}

// SeriesRatings replays every adjudicated room of the series through the
// rating model and returns the current skill estimate per member. Members
// with no scored history sit at the default. The result feeds the allocation
// objective and is never exposed over the API.
func SeriesRatings(ctx context.Context, store *db.Store, seriesID int64) (map[int64]float64, error) {
	members, err := store.ListMembers(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	ballots, err := store.ListCanonicalBallots(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	rooms := make([]rating.RoomResult, 0, len(ballots))
	for _, b := range ballots {
		room, err := roomResultFromScoresheet(b.Scoresheet)
		if err != nil {
			return nil, fmt.Errorf("ballot for room %d: %w", b.RoomID, err)
		}
		rooms = append(rooms, room)
	}

	rated := rating.Compute(rooms, rating.DefaultConfig())
	out := make(map[int64]float64, len(members))
	for _, m := range members {
		out[m.ID] = rating.DefaultMu
	}
	for id, r := range rated {
		out[id] = r.Mu
	}
	return out, nil
}

func roomResultFromScoresheet(raw json.RawMessage) (rating.RoomResult, error) {
	var sheet models.Scoresheet
	if err := json.Unmarshal(raw, &sheet); err != nil {
		return rating.RoomResult{}, err
	}
	if len(sheet.Teams) != 4 {
		return rating.RoomResult{}, fmt.Errorf("scoresheet has %d teams", len(sheet.Teams))
	}

	var room rating.RoomResult
	seen := map[int]bool{}
	for _, team := range sheet.Teams {
		idx, ok := positionIndex[team.Position]
		if !ok {
			return rating.RoomResult{}, fmt.Errorf("unknown position %q", team.Position)
		}
		if seen[idx] {
			return rating.RoomResult{}, fmt.Errorf("duplicate position %q", team.Position)
		}
		seen[idx] = true
		members := make([]int64, 0, len(team.Speakers))
		for _, sp := range team.Speakers {
			members = append(members, sp.MemberID)
		}
		room.Teams[idx] = rating.TeamResult{Members: members, Score: team.Total()}
	}
	return room, nil
}
