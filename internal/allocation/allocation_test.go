package allocation

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sparhub/backend/internal/milp"
)

// generateParticipants numbers members consecutively from 0: dedicated
// judges first, then dedicated speakers, then those willing to do both.
func generateParticipants(judges, speakers, both int) map[int64]Signup {
	signups := map[int64]Signup{}
	id := int64(0)
	for i := 0; i < judges; i++ {
		signups[id] = Signup{MemberID: id, AsJudge: true}
		id++
	}
	for i := 0; i < speakers; i++ {
		signups[id] = Signup{MemberID: id, AsSpeaker: true}
		id++
	}
	for i := 0; i < both; i++ {
		signups[id] = Signup{MemberID: id, AsJudge: true, AsSpeaker: true}
		id++
	}
	return signups
}

func flatRatings(signups map[int64]Signup, value float64) map[int64]float64 {
	ratings := map[int64]float64{}
	for id := range signups {
		ratings[id] = value
	}
	return ratings
}

func solveDraw(t *testing.T, signups map[int64]Signup, ratings map[int64]float64) (map[int64]Assignment, Draw) {
	t.Helper()
	p := BuildProblem(signups, ratings, DefaultWeights())
	assignments, err := p.Solve(milp.DefaultOptions())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	draw := ReconstructRooms(assignments)
	if err := ValidateDraw(signups, assignments, draw); err != nil {
		t.Fatalf("invalid draw: %v", err)
	}
	return assignments, draw
}

func TestThreeRoomsThreeJudges(t *testing.T) {
	signups := generateParticipants(3, 24, 0)
	_, draw := solveDraw(t, signups, flatRatings(signups, 25.0))
	if len(draw) != 3 {
		t.Fatalf("expected 3 rooms, got %d: %+v", len(draw), draw)
	}
}

func TestTwoRoomsMixedRoles(t *testing.T) {
	signups := generateParticipants(1, 16, 3)
	_, draw := solveDraw(t, signups, flatRatings(signups, 25.0))
	if len(draw) != 2 {
		t.Fatalf("expected 2 rooms, got %d: %+v", len(draw), draw)
	}
}

func TestJudgeBalance(t *testing.T) {
	signups := generateParticipants(6, 16, 0)
	_, draw := solveDraw(t, signups, flatRatings(signups, 25.0))
	if len(draw) != 2 {
		t.Fatalf("expected 2 rooms, got %d: %+v", len(draw), draw)
	}
	for label, room := range draw {
		if len(room.Panel) != 3 {
			t.Fatalf("expected judges split 3/3, room %d has %d: %+v", label, len(room.Panel), draw)
		}
	}
}

func TestMinimalJudgesFromDualRolePool(t *testing.T) {
	signups := generateParticipants(0, 12, 6)
	_, draw := solveDraw(t, signups, flatRatings(signups, 25.0))
	if len(draw) != 2 {
		t.Fatalf("expected 2 rooms, got %d: %+v", len(draw), draw)
	}
	for label, room := range draw {
		if len(room.Panel) != 1 {
			t.Fatalf("expected exactly 1 judge in room %d, got %d", label, len(room.Panel))
		}
	}
}

func TestOneRoomFull(t *testing.T) {
	signups := generateParticipants(0, 8, 1)
	_, draw := solveDraw(t, signups, flatRatings(signups, 25.0))
	if len(draw) != 1 {
		t.Fatalf("expected 1 room, got %d", len(draw))
	}
}

func TestOneRoomUnderEightSpeakers(t *testing.T) {
	signups := generateParticipants(0, 7, 1)
	_, draw := solveDraw(t, signups, flatRatings(signups, 25.0))
	if len(draw) != 1 {
		t.Fatalf("expected 1 room, got %d", len(draw))
	}
}

func TestProAmPairing(t *testing.T) {
	signups := generateParticipants(3, 8, 0)
	ratings := map[int64]float64{}
	for id := range signups {
		ratings[id] = 25.0 * float64(id)
	}
	_, draw := solveDraw(t, signups, ratings)
	if len(draw) != 1 {
		t.Fatalf("expected 1 room, got %d", len(draw))
	}

	// balancing team sums should put the weakest speaker (3) with the
	// strongest (10)
	for _, room := range draw {
		for _, members := range room.Teams {
			var hasWeakest, hasStrongest bool
			for _, m := range members {
				if m == 3 {
					hasWeakest = true
				}
				if m == 10 {
					hasStrongest = true
				}
			}
			if hasWeakest && hasStrongest {
				return
			}
		}
	}
	t.Fatalf("weakest and strongest speakers not paired: %+v", draw)
}

func TestMutualPartnersShareTeam(t *testing.T) {
	signups := generateParticipants(3, 8, 0)
	a, b := int64(3), int64(4)
	sa := signups[a]
	sa.PartnerPreference = &b
	signups[a] = sa
	sb := signups[b]
	sb.PartnerPreference = &a
	signups[b] = sb

	assignments, _ := solveDraw(t, signups, flatRatings(signups, 25.0))
	if assignments[a].Judge || assignments[b].Judge {
		t.Fatalf("partners placed on a panel: %+v / %+v", assignments[a], assignments[b])
	}
	if assignments[a].Room != assignments[b].Room || assignments[a].Slot != assignments[b].Slot {
		t.Fatalf("mutual partners split up: %+v / %+v", assignments[a], assignments[b])
	}
}

func TestAsymmetricPreferenceDoesNotCrash(t *testing.T) {
	signups := generateParticipants(3, 8, 0)
	a, b, c := int64(3), int64(4), int64(5)
	sa := signups[a]
	sa.PartnerPreference = &b
	signups[a] = sa
	sb := signups[b]
	sb.PartnerPreference = &c // b wants someone else
	signups[b] = sb
	missing := int64(999)
	sc := signups[c]
	sc.PartnerPreference = &missing // dangling reference
	signups[c] = sc

	solveDraw(t, signups, flatRatings(signups, 25.0))
}

func TestBuildPanicsOnUselessSignup(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for signup with neither flag")
		}
	}()
	signups := generateParticipants(1, 8, 0)
	signups[50] = Signup{MemberID: 50}
	BuildProblem(signups, nil, DefaultWeights())
}

func TestReconstructRoomsIdempotent(t *testing.T) {
	assignments := map[int64]Assignment{
		1: {Room: 0, Judge: true},
		2: {Room: 0, Slot: SlotOG},
		3: {Room: 0, Slot: SlotOG},
		4: {Room: 0, Slot: SlotOO},
		5: {Room: 0, Slot: SlotOO},
		6: {Room: 0, Slot: SlotCG},
		7: {Room: 0, Slot: SlotCG},
		8: {Room: 0, Slot: SlotCO},
		9: {Room: 0, Slot: SlotCO},
	}

	first, err := json.Marshal(ReconstructRooms(assignments))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(ReconstructRooms(assignments))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("reconstruction not idempotent:\n%s\n%s", first, second)
	}
}

func TestDrawRoundTripsThroughJSON(t *testing.T) {
	draw := Draw{
		0: {
			Panel: []int64{1},
			Teams: map[TeamSlot][]int64{
				SlotOG: {2, 3},
				SlotOO: {4, 5},
				SlotCG: {6, 7},
				SlotCO: {8, 9},
			},
		},
	}
	blob, err := json.Marshal(draw)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Draw
	if err := json.Unmarshal(blob, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	again, err := json.Marshal(back)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(blob, again) {
		t.Fatalf("draw did not round-trip:\n%s\n%s", blob, again)
	}
}

func TestEncodingAgreesWithSearchOnSmallPool(t *testing.T) {
	// four speakers fill one room with singleton teams, small enough for
	// the generic solver to close the integer-program encoding; it must
	// land on the same structure the search produces
	signups := generateParticipants(1, 4, 0)
	ratings := map[int64]float64{0: 25, 1: 20, 2: 24, 3: 28, 4: 32}
	p := BuildProblem(signups, ratings, DefaultWeights())

	sol, err := milp.Solve(p.model, milp.DefaultOptions())
	if err != nil {
		t.Fatalf("encoding solve: %v", err)
	}
	decoded := p.decodeSolution(sol)
	if err := ValidateDraw(signups, decoded, ReconstructRooms(decoded)); err != nil {
		t.Fatalf("invalid decoded draw: %v", err)
	}
	if !decoded[0].Judge {
		t.Fatalf("expected member 0 on the panel, got %+v", decoded[0])
	}

	searched, err := p.Solve(milp.DefaultOptions())
	if err != nil {
		t.Fatalf("search solve: %v", err)
	}
	if len(ReconstructRooms(searched)) != 1 || len(ReconstructRooms(decoded)) != 1 {
		t.Fatalf("expected one room from both paths")
	}
	if !searched[0].Judge {
		t.Fatalf("expected member 0 on the panel, got %+v", searched[0])
	}
}
