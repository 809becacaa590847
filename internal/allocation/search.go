package allocation

import (
	"math"
	"sort"

	"github.com/sparhub/backend/internal/milp"
)

// The search works the way the program decomposes. Room count and the
// judge/speaker split of dual signups fix the room and judge-load terms
// exactly, and those configurations are few enough to enumerate. Inside a
// configuration only the team partition touches the rating terms: a single
// room is small enough to enumerate exactly, larger pools get a balanced
// seeding refined by improving swaps. Relaxation-based branch and bound is
// kept for the encoding itself but cannot close pools of this symmetry in
// useful time.

// maxDualSubsets caps how many judge/speaker splits of the dual pool are
// tried per configuration before falling back to one deterministic split.
const maxDualSubsets = 128

type roomPlan struct {
	panel []int64
	teams [4][]int64
}

type searcher struct {
	p      *Problem
	budget int

	onlyJudges   []int64
	onlySpeakers []int64
	duals        []int64

	best     float64
	bestPlan []roomPlan
}

func (p *Problem) search(opts milp.Options) ([]roomPlan, error) {
	s := &searcher{p: p, budget: opts.MaxNodes, best: math.Inf(-1)}
	for _, id := range p.participants {
		su := p.signups[id]
		switch {
		case su.AsJudge && su.AsSpeaker:
			s.duals = append(s.duals, id)
		case su.AsJudge:
			s.onlyJudges = append(s.onlyJudges, id)
		default:
			s.onlySpeakers = append(s.onlySpeakers, id)
		}
	}

	for rooms := 1; rooms <= p.rooms; rooms++ {
		for d := 0; d <= len(s.duals); d++ {
			speaking := len(s.onlySpeakers) + d
			if speaking < 4*rooms || speaking > 8*rooms {
				continue
			}
			if len(s.onlyJudges)+len(s.duals)-d < rooms {
				continue
			}
			s.tryConfig(rooms, d)
		}
	}
	if s.bestPlan == nil {
		return nil, milp.ErrInfeasible
	}
	return s.bestPlan, nil
}

func (s *searcher) tryConfig(rooms, d int) {
	if s.bestPlan != nil && s.budget <= 0 {
		return
	}
	judges := len(s.onlyJudges) + len(s.duals) - d
	fixed := -s.p.weights.RoomCount*float64(rooms) - s.p.weights.JudgeLoad*judgePenalty(judges, rooms)

	for _, speaking := range dualSubsets(s.duals, d) {
		pool := make([]int64, 0, len(s.onlySpeakers)+d)
		pool = append(pool, s.onlySpeakers...)
		pool = append(pool, speaking...)
		sort.Slice(pool, func(i, j int) bool { return pool[i] < pool[j] })

		teams, value := s.partition(pool, rooms)
		total := fixed + value
		if total <= s.best {
			continue
		}
		s.best = total
		s.bestPlan = assemblePlan(teams, judgingPool(s.onlyJudges, s.duals, speaking))
	}
}

// judgePenalty is the judge-load term for j judges split as evenly as
// possible over the rooms: the judge total plus the pairwise panel size
// differences, which an uneven split can only increase.
func judgePenalty(j, rooms int) float64 {
	hi := j % rooms
	return float64(j + hi*(rooms-hi))
}

func dualSubsets(duals []int64, d int) [][]int64 {
	if d == 0 {
		return [][]int64{nil}
	}
	if binomial(len(duals), d) > maxDualSubsets {
		return [][]int64{append([]int64(nil), duals[:d]...)}
	}
	combos := indexCombinations(len(duals), d)
	out := make([][]int64, 0, len(combos))
	for _, c := range combos {
		pick := make([]int64, d)
		for i, k := range c {
			pick[i] = duals[k]
		}
		out = append(out, pick)
	}
	return out
}

func binomial(n, k int) int {
	if k > n-k {
		k = n - k
	}
	out := 1
	for i := 1; i <= k; i++ {
		out = out * (n - k + i) / i
		if out > maxDualSubsets {
			return out
		}
	}
	return out
}

func indexCombinations(n, k int) [][]int {
	if k == 0 {
		return [][]int{nil}
	}
	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		out = append(out, append([]int(nil), idx...))
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func judgingPool(onlyJudges, duals, speaking []int64) []int64 {
	speaks := make(map[int64]bool, len(speaking))
	for _, id := range speaking {
		speaks[id] = true
	}
	out := append([]int64(nil), onlyJudges...)
	for _, id := range duals {
		if !speaks[id] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func assemblePlan(teams [][4][]int64, judging []int64) []roomPlan {
	rooms := len(teams)
	plan := make([]roomPlan, rooms)
	q, hi := len(judging)/rooms, len(judging)%rooms
	k := 0
	for r := 0; r < rooms; r++ {
		plan[r].teams = teams[r]
		n := q
		if r < hi {
			n++
		}
		plan[r].panel = append([]int64(nil), judging[k:k+n]...)
		k += n
	}
	return plan
}

func (s *searcher) partition(pool []int64, rooms int) ([][4][]int64, float64) {
	pairs := s.mutualPairs(pool)
	if rooms == 1 {
		return s.exactRoom(pool, pairs)
	}
	return s.greedyRooms(pool, rooms, pairs)
}

func (s *searcher) mutualPairs(pool []int64) [][2]int64 {
	in := make(map[int64]bool, len(pool))
	for _, id := range pool {
		in[id] = true
	}
	var pairs [][2]int64
	for _, id := range pool {
		su := s.p.signups[id]
		if su.PartnerPreference == nil {
			continue
		}
		q := *su.PartnerPreference
		if q <= id || !in[q] {
			continue
		}
		other, ok := s.p.signups[q]
		if !ok || other.PartnerPreference == nil || *other.PartnerPreference != id {
			continue
		}
		pairs = append(pairs, [2]int64{id, q})
	}
	return pairs
}

// evaluate scores a team partition on the rating-dependent terms only; the
// room and judge terms are fixed per configuration.
func (s *searcher) evaluate(teams [][4][]int64, pairs [][2]int64) float64 {
	s.budget--
	w := s.p.weights
	v := 0.0
	teamOf := make(map[int64]int, 8*len(teams))
	flat := 0
	for _, room := range teams {
		var sums [4]float64
		for j := 0; j < 4; j++ {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, id := range room[j] {
				sc := s.p.scores[id]
				sums[j] += sc
				if sc < lo {
					lo = sc
				}
				if sc > hi {
					hi = sc
				}
				teamOf[id] = flat
			}
			if len(room[j]) > 0 {
				v += w.SpeakerSpread * (hi - lo)
			}
			flat++
		}
		for a := 0; a < 4; a++ {
			for b := a + 1; b < 4; b++ {
				v -= w.TeamBalance * math.Abs(sums[a]-sums[b])
			}
		}
	}
	for _, pr := range pairs {
		ta, oka := teamOf[pr[0]]
		tb, okb := teamOf[pr[1]]
		if oka && okb && ta == tb {
			v += w.PartnerBonus
		}
	}
	return v
}

// exactRoom enumerates every partition of a single room's speakers into
// four teams of one or two. The space tops out at 105 partitions for eight
// speakers, so the room optimum is exact.
func (s *searcher) exactRoom(pool []int64, pairs [][2]int64) ([][4][]int64, float64) {
	nSingles := 8 - len(pool)
	best := math.Inf(-1)
	var bestTeams [4][]int64

	consider := func(teams [4][]int64) {
		v := s.evaluate([][4][]int64{teams}, pairs)
		if v > best {
			best = v
			for j := 0; j < 4; j++ {
				bestTeams[j] = append([]int64(nil), teams[j]...)
			}
		}
	}

	for _, singleIdx := range indexCombinations(len(pool), nSingles) {
		inSingle := make([]bool, len(pool))
		var teams [4][]int64
		t := 0
		for _, i := range singleIdx {
			inSingle[i] = true
			teams[t] = []int64{pool[i]}
			t++
		}
		rest := make([]int64, 0, len(pool)-nSingles)
		for i, id := range pool {
			if !inSingle[i] {
				rest = append(rest, id)
			}
		}
		var match func(remaining []int64, t int)
		match = func(remaining []int64, t int) {
			if len(remaining) == 0 {
				consider(teams)
				return
			}
			first := remaining[0]
			for k := 1; k < len(remaining); k++ {
				teams[t] = []int64{first, remaining[k]}
				next := make([]int64, 0, len(remaining)-2)
				next = append(next, remaining[1:k]...)
				next = append(next, remaining[k+1:]...)
				match(next, t+1)
			}
			teams[t] = nil
		}
		match(rest, t)
	}
	return [][4][]int64{bestTeams}, best
}

// greedyRooms seeds a balanced multi-room partition and refines it with
// improving swaps and transfers until no move helps or the budget runs out.
func (s *searcher) greedyRooms(pool []int64, rooms int, pairs [][2]int64) ([][4][]int64, float64) {
	counts := splitCounts(len(pool), rooms)
	teams := make([][4][]int64, rooms)
	caps := make([][4]int, rooms)
	for r := 0; r < rooms; r++ {
		for j := 0; j < 4; j++ {
			if j < counts[r]-4 {
				caps[r][j] = 2
			} else {
				caps[r][j] = 1
			}
		}
	}

	placed := make(map[int64]bool, len(pool))
	next := 0
	for _, pr := range pairs {
		for off := 0; off < rooms; off++ {
			rr := (next + off) % rooms
			done := false
			for j := 0; j < 4; j++ {
				if caps[rr][j] == 2 && len(teams[rr][j]) == 0 {
					teams[rr][j] = []int64{pr[0], pr[1]}
					placed[pr[0]], placed[pr[1]] = true, true
					next = (rr + 1) % rooms
					done = true
					break
				}
			}
			if done {
				break
			}
		}
	}

	rest := make([]int64, 0, len(pool))
	for _, id := range pool {
		if !placed[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, k int) bool {
		si, sk := s.p.scores[rest[i]], s.p.scores[rest[k]]
		if si != sk {
			return si > sk
		}
		return rest[i] < rest[k]
	})
	for _, id := range rest {
		br, bj := -1, -1
		bestSum := math.Inf(1)
		for rr := 0; rr < rooms; rr++ {
			for j := 0; j < 4; j++ {
				if len(teams[rr][j]) >= caps[rr][j] {
					continue
				}
				sum := 0.0
				for _, m := range teams[rr][j] {
					sum += s.p.scores[m]
				}
				if sum < bestSum {
					bestSum, br, bj = sum, rr, j
				}
			}
		}
		teams[br][bj] = append(teams[br][bj], id)
	}

	return teams, s.localSearch(teams, pairs)
}

func (s *searcher) localSearch(teams [][4][]int64, pairs [][2]int64) float64 {
	value := s.evaluate(teams, pairs)
	for pass := 0; pass < 64 && s.budget > 0; pass++ {
		improved := false

		type pos struct{ room, team, idx int }
		var members []pos
		for r := range teams {
			for j := 0; j < 4; j++ {
				for i := range teams[r][j] {
					members = append(members, pos{r, j, i})
				}
			}
		}
		for ai := 0; ai < len(members) && s.budget > 0; ai++ {
			for bi := ai + 1; bi < len(members) && s.budget > 0; bi++ {
				a, b := members[ai], members[bi]
				if a.room == b.room && a.team == b.team {
					continue
				}
				teams[a.room][a.team][a.idx], teams[b.room][b.team][b.idx] =
					teams[b.room][b.team][b.idx], teams[a.room][a.team][a.idx]
				if v := s.evaluate(teams, pairs); v > value+1e-9 {
					value = v
					improved = true
				} else {
					teams[a.room][a.team][a.idx], teams[b.room][b.team][b.idx] =
						teams[b.room][b.team][b.idx], teams[a.room][a.team][a.idx]
				}
			}
		}

		roomSize := make([]int, len(teams))
		for r := range teams {
			for j := 0; j < 4; j++ {
				roomSize[r] += len(teams[r][j])
			}
		}
		for ar := range teams {
			for aj := 0; aj < 4 && s.budget > 0; aj++ {
				if len(teams[ar][aj]) != 2 {
					continue
				}
				moved := false
				for br := range teams {
					for bj := 0; bj < 4 && !moved; bj++ {
						if len(teams[br][bj]) != 1 {
							continue
						}
						if ar != br && (roomSize[ar]-1 < 4 || roomSize[br]+1 > 8) {
							continue
						}
						for i := 0; i < len(teams[ar][aj]) && !moved; i++ {
							src := teams[ar][aj]
							id := src[i]
							src[i] = src[len(src)-1]
							teams[ar][aj] = src[:len(src)-1]
							teams[br][bj] = append(teams[br][bj], id)
							if v := s.evaluate(teams, pairs); v > value+1e-9 {
								value = v
								improved = true
								moved = true
								roomSize[ar]--
								roomSize[br]++
							} else {
								teams[br][bj] = teams[br][bj][:len(teams[br][bj])-1]
								teams[ar][aj] = append(teams[ar][aj], id)
							}
						}
					}
					if moved {
						break
					}
				}
			}
		}

		if !improved {
			break
		}
	}
	return value
}

// splitCounts spreads the speakers over the rooms as evenly as possible.
// The configuration loop only admits pools the rooms can hold, so every
// count lands in the four-to-eight band.
func splitCounts(speakers, rooms int) []int {
	counts := make([]int, rooms)
	base, extra := speakers/rooms, speakers%rooms
	for r := 0; r < rooms; r++ {
		counts[r] = base
		if r < extra {
			counts[r]++
		}
	}
	return counts
}
