package rating

// TeamResult is one team's outcome in a finished room: its member ids (in
// speaking order, one or two of them) and the summed speaker score from the
// room's canonical ballot.
type TeamResult struct {
	Members []int64
	Score   int64
}

// RoomResult is a finished room in OG, OO, CG, CO order. Ballot validation
// upstream rejects equal team totals, so scores are expected to be strictly
// distinct.
type RoomResult struct {
	Teams [4]TeamResult
}

// Ranks returns each team's zero-based placement, best total first. Tied
// totals (which validation should have rejected) produce equal ranks rather
// than an arbitrary ordering.
func (r RoomResult) Ranks() []int {
	ranks := make([]int, len(r.Teams))
	for i := range r.Teams {
		for q := range r.Teams {
			if r.Teams[q].Score > r.Teams[i].Score {
				ranks[i]++
			}
		}
	}
	return ranks
}

// Compute folds every room result, in the order given, into a running rating
// map. Callers must pass rooms in ascending order of ballot finalization so
// later rounds see the updated numbers. Participants first seen mid-history
// enter at the default rating; participants absent from every room are absent
// from the result.
func Compute(rooms []RoomResult, cfg Config) map[int64]Rating {
	ratings := map[int64]Rating{}
	for _, room := range rooms {
		teams := make([][]Rating, len(room.Teams))
		for i, tr := range room.Teams {
			teams[i] = make([]Rating, len(tr.Members))
			for k, id := range tr.Members {
				r, ok := ratings[id]
				if !ok {
					r = New()
				}
				teams[i][k] = r
			}
		}

		updated := MultiTeam(teams, room.Ranks(), cfg)

		for i, tr := range room.Teams {
			for k, id := range tr.Members {
				ratings[id] = updated[i][k]
			}
		}
	}
	return ratings
}
