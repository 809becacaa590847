package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/sparhub/backend/internal/milp"
	"github.com/sparhub/backend/internal/rating"
)

// roles as the integer program sees them; decoded back into Assignment at
// the solver boundary and nowhere else.
const (
	roleOG = iota
	roleOO
	roleCG
	roleCO
	roleJudge
	roleCount
)

// maxJudgesPerRoom caps the judge coupling constraint for active rooms. Any
// safe upper bound works; room activation forces zero judges in inactive
// rooms either way.
const maxJudgesPerRoom = 100

// Weights tune the relative importance of the objective terms. The hard
// constraint set does not change with them.
type Weights struct {
	// TeamBalance penalizes rating differences between opposing teams in
	// the same room.
	TeamBalance float64
	// SpeakerSpread rewards (when positive) rating spread within a team,
	// supporting deliberate pro-am pairings.
	SpeakerSpread float64
	// JudgeLoad penalizes uneven judge counts across rooms and judges
	// allocated beyond need.
	JudgeLoad float64
	// RoomCount penalizes each active room.
	RoomCount float64
	// PartnerBonus rewards a mutual partner pair sharing a team slot.
	PartnerBonus float64
}

func DefaultWeights() Weights {
	return Weights{
		TeamBalance:   1,
		SpeakerSpread: 1,
		JudgeLoad:     1,
		RoomCount:     5,
		PartnerBonus:  20,
	}
}

// Problem is a built draw allocation program, ready to solve.
type Problem struct {
	model        *milp.Model
	participants []int64 // sorted for deterministic model construction
	signups      map[int64]Signup
	scores       map[int64]float64
	weights      Weights
	x            map[xKey]milp.Var
	rooms        int
}

type xKey struct {
	member int64
	room   int
	role   int
}

// Rooms reports the room budget the program was built with.
func (p *Problem) Rooms() int { return p.rooms }

// Vars and Constraints report model dimensions for diagnostics.
func (p *Problem) Vars() int        { return p.model.NumVars() }
func (p *Problem) Constraints() int { return p.model.NumConstraints() }

// BuildProblem translates signups and ratings into the allocation integer
// program. Ratings missing from the map default to the model's no-history
// value. Every signup must have at least one willingness flag set and the
// speaker supply must allow at least one room; both are caller-enforced
// preconditions, not user errors.
func BuildProblem(signups map[int64]Signup, ratings map[int64]float64, w Weights) *Problem {
	participants := make([]int64, 0, len(signups))
	speakers := 0
	for id, s := range signups {
		if !s.AsJudge && !s.AsSpeaker {
			panic(fmt.Sprintf("allocation: signup %d has neither willingness flag set", id))
		}
		if s.AsSpeaker {
			speakers++
		}
		participants = append(participants, id)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i] < participants[j] })

	// eight speaking slots per BP room; an upper bound for variable
	// generation only, the objective prefers fewer rooms
	rMax := (speakers + 7) / 8
	if rMax == 0 {
		panic("allocation: no speakers, capacity check bypassed")
	}

	scores := make(map[int64]float64, len(participants))
	for _, id := range participants {
		if r, ok := ratings[id]; ok {
			scores[id] = r
		} else {
			scores[id] = rating.DefaultMu
		}
	}
	score := func(id int64) float64 { return scores[id] }

	m := milp.NewModel()
	p := &Problem{
		model:        m,
		participants: participants,
		signups:      signups,
		scores:       scores,
		weights:      w,
		x:            map[xKey]milp.Var{},
		rooms:        rMax,
	}

	u := make([]milp.Var, rMax)
	for r := 0; r < rMax; r++ {
		u[r] = m.Binary(fmt.Sprintf("u(%d)", r))
	}
	for _, id := range participants {
		for r := 0; r < rMax; r++ {
			for j := 0; j < roleCount; j++ {
				p.x[xKey{id, r, j}] = m.Binary(fmt.Sprintf("x(%d,%d,%d)", id, r, j))
			}
		}
	}

	// eligibility: never judge without the judge flag, never speak without
	// the speaker flag
	for _, id := range participants {
		s := signups[id]
		for r := 0; r < rMax; r++ {
			if !s.AsJudge {
				m.AddLE(milp.NewExpr().Term(p.x[xKey{id, r, roleJudge}], 1), 0)
			}
			if !s.AsSpeaker {
				for j := roleOG; j <= roleCO; j++ {
					m.AddLE(milp.NewExpr().Term(p.x[xKey{id, r, j}], 1), 0)
				}
			}
		}

		// everyone is placed in exactly one role of exactly one room
		placed := milp.NewExpr()
		for r := 0; r < rMax; r++ {
			for j := 0; j < roleCount; j++ {
				placed.Term(p.x[xKey{id, r, j}], 1)
			}
		}
		m.AddGE(placed, 1)
		m.AddLE(placed, 1)
	}

	// room activation coupling: active rooms carry 1-2 people per team slot
	// and at least one judge; inactive rooms stay empty
	judgeCounts := make([]*milp.Expr, rMax)
	for r := 0; r < rMax; r++ {
		judgeCount := milp.NewExpr()
		for _, id := range participants {
			judgeCount.Term(p.x[xKey{id, r, roleJudge}], 1)
		}
		judgeCounts[r] = judgeCount

		capped := milp.NewExpr().AddScaled(judgeCount, 1).Term(u[r], -maxJudgesPerRoom)
		m.AddLE(capped, 0)
		need := milp.NewExpr().AddScaled(judgeCount, 1).Term(u[r], -1)
		m.AddGE(need, 0)

		for j := roleOG; j <= roleCO; j++ {
			teamCount := milp.NewExpr()
			for _, id := range participants {
				teamCount.Term(p.x[xKey{id, r, j}], 1)
			}
			upper := milp.NewExpr().AddScaled(teamCount, 1).Term(u[r], -2)
			m.AddLE(upper, 0)
			lower := milp.NewExpr().AddScaled(teamCount, 1).Term(u[r], -1)
			m.AddGE(lower, 0)
		}
	}

	// summed rating per (room, team slot)
	teamScore := make(map[[2]int]*milp.Expr)
	for r := 0; r < rMax; r++ {
		for j := roleOG; j <= roleCO; j++ {
			e := milp.NewExpr()
			for _, id := range participants {
				e.Term(p.x[xKey{id, r, j}], score(id))
			}
			teamScore[[2]int{r, j}] = e
		}
	}

	// term 1: pairwise rating difference between teams in the same room
	teamDiff := milp.NewExpr()
	for r := 0; r < rMax; r++ {
		for a := roleOG; a <= roleCO; a++ {
			for b := a + 1; b <= roleCO; b++ {
				d := m.AbsDiff(teamScore[[2]int{r, a}], teamScore[[2]int{r, b}],
					fmt.Sprintf("teamdiff(%d,%d,%d)", r, a, b))
				teamDiff.Term(d, 1)
			}
		}
	}

	// term 2: rating spread inside each team, bracketed by max/min
	// variables bounded by every candidate's contribution
	gmax, gmin := ratingRange(participants, score)
	spread := milp.NewExpr()
	for r := 0; r < rMax; r++ {
		for j := roleOG; j <= roleCO; j++ {
			maxOnTeam := m.Continuous(fmt.Sprintf("maxr(%d,%d)", r, j), 0)
			minOnTeam := m.Continuous(fmt.Sprintf("minr(%d,%d)", r, j), math.Min(0, gmin-100))
			m.AddLE(milp.NewExpr().Term(maxOnTeam, 1), gmax+100)
			for _, id := range participants {
				contrib := milp.NewExpr().Term(p.x[xKey{id, r, j}], score(id))
				m.AddLE(contrib.Minus(milp.NewExpr().Term(maxOnTeam, 1)), 0)
				m.AddLE(milp.NewExpr().Term(minOnTeam, 1).AddScaled(contrib, -1), 0)
			}
			spread.Term(maxOnTeam, 1).Term(minOnTeam, -1)
		}
	}

	// term 3: judge-load balance across room pairs plus total judge count
	judgePenalty := milp.NewExpr()
	for i := 0; i < rMax; i++ {
		for q := i + 1; q < rMax; q++ {
			d := m.AbsDiff(judgeCounts[i], judgeCounts[q], fmt.Sprintf("judgediff(%d,%d)", i, q))
			judgePenalty.Term(d, 1)
		}
	}
	for r := 0; r < rMax; r++ {
		judgePenalty.AddScaled(judgeCounts[r], 1)
	}

	// term 4: active room count
	roomCount := milp.NewExpr()
	for r := 0; r < rMax; r++ {
		roomCount.Term(u[r], 1)
	}

	// term 5: mutual partner pairs sharing a team slot; z is pushed to 1 by
	// the positive objective weight whenever both x variables are 1, so the
	// third linearization inequality is not needed
	partner := milp.NewExpr()
	for _, id := range participants {
		s := signups[id]
		if s.PartnerPreference == nil {
			continue
		}
		q := *s.PartnerPreference
		if q <= id {
			continue // count each unordered pair once
		}
		other, ok := signups[q]
		if !ok || other.PartnerPreference == nil || *other.PartnerPreference != id {
			continue // pairing bonus applies to mutual preferences only
		}
		for r := 0; r < rMax; r++ {
			for j := roleOG; j <= roleCO; j++ {
				z := m.Binary(fmt.Sprintf("z(%d,%d,%d,%d)", id, q, r, j))
				m.AddLE(milp.NewExpr().Term(z, 1).Term(p.x[xKey{id, r, j}], -1), 0)
				m.AddLE(milp.NewExpr().Term(z, 1).Term(p.x[xKey{q, r, j}], -1), 0)
				partner.Term(z, 1)
			}
		}
	}

	obj := milp.NewExpr()
	obj.AddScaled(teamDiff, -w.TeamBalance)
	obj.AddScaled(spread, w.SpeakerSpread)
	obj.AddScaled(judgePenalty, -w.JudgeLoad)
	obj.AddScaled(roomCount, -w.RoomCount)
	obj.AddScaled(partner, w.PartnerBonus)
	m.Maximize(obj)

	return p
}

func ratingRange(participants []int64, score func(int64) float64) (gmax, gmin float64) {
	gmax, gmin = rating.DefaultMu, rating.DefaultMu
	for i, id := range participants {
		s := score(id)
		if i == 0 || s > gmax {
			gmax = s
		}
		if i == 0 || s < gmin {
			gmin = s
		}
	}
	return gmax, gmin
}
