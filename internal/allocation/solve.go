package allocation

import (
	"fmt"

	"github.com/sparhub/backend/internal/milp"
)

// assignedThreshold tolerates near-binary floats coming back from the
// relaxation-based solver.
const assignedThreshold = 0.95

// Solve searches for the best draw under the program's constraints and
// objective and returns it as a total assignment map. Infeasibility here
// means either the caller bypassed the capacity preconditions or the pool
// genuinely cannot staff a room; it is returned as an error for the caller
// to log with model dimensions. A participant placed twice or never would
// mean the search broke the exactly-one invariant and is a fatal bug, not a
// recoverable condition.
func (p *Problem) Solve(opts milp.Options) (map[int64]Assignment, error) {
	plan, err := p.search(opts)
	if err != nil {
		return nil, fmt.Errorf("allocation: solve failed (%d vars, %d constraints, %d rooms): %w",
			p.Vars(), p.Constraints(), p.rooms, err)
	}

	assignments := make(map[int64]Assignment, len(p.participants))
	place := func(id int64, a Assignment) {
		if _, dup := assignments[id]; dup {
			panic(fmt.Sprintf("allocation: participant %d placed twice, exactly-one invariant violated", id))
		}
		assignments[id] = a
	}
	for r, room := range plan {
		for _, id := range room.panel {
			place(id, Assignment{Room: r, Judge: true})
		}
		for j, members := range room.teams {
			for _, id := range members {
				place(id, Assignment{Room: r, Slot: TeamSlot(j)})
			}
		}
	}
	for _, id := range p.participants {
		if _, ok := assignments[id]; !ok {
			panic(fmt.Sprintf("allocation: participant %d never placed, exactly-one invariant violated", id))
		}
	}
	return assignments, nil
}

// decodeSolution reads a solved instance of the integer-program encoding
// back into assignments. The encoding is the reference statement of the
// draw constraints; the search above must agree with it wherever the
// generic solver can finish.
func (p *Problem) decodeSolution(sol *milp.Solution) map[int64]Assignment {
	assignments := make(map[int64]Assignment, len(p.participants))
	for _, id := range p.participants {
		for r := 0; r < p.rooms; r++ {
			for j := 0; j < roleCount; j++ {
				if sol.Value(p.x[xKey{id, r, j}]) < assignedThreshold {
					continue
				}
				if _, dup := assignments[id]; dup {
					panic(fmt.Sprintf("allocation: participant %d decoded into two roles, exactly-one constraint violated", id))
				}
				if j == roleJudge {
					assignments[id] = Assignment{Room: r, Judge: true}
				} else {
					assignments[id] = Assignment{Room: r, Slot: TeamSlot(j)}
				}
			}
		}
		if _, ok := assignments[id]; !ok {
			panic(fmt.Sprintf("allocation: participant %d decoded into no role, exactly-one constraint violated", id))
		}
	}
	return assignments
}
