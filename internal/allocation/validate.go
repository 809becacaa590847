package allocation

import "fmt"

// ValidateDraw checks the structural invariants every solver output must
// satisfy. It is used by the property tests and run defensively after every
// solve; a violation points at a solver or builder bug, never at user input.
func ValidateDraw(signups map[int64]Signup, assignments map[int64]Assignment, draw Draw) error {
	if len(assignments) != len(signups) {
		return fmt.Errorf("allocation: %d assignments for %d signups", len(assignments), len(signups))
	}

	seen := map[int64]string{}
	for label, room := range draw {
		if len(room.Panel) == 0 {
			return fmt.Errorf("allocation: room %d has no judges", label)
		}
		for _, member := range room.Panel {
			s, ok := signups[member]
			if !ok {
				return fmt.Errorf("allocation: room %d panel contains unknown member %d", label, member)
			}
			if !s.AsJudge {
				return fmt.Errorf("allocation: member %d judges room %d without the judge flag", member, label)
			}
			if prev, dup := seen[member]; dup {
				return fmt.Errorf("allocation: member %d appears both as %s and on room %d panel", member, prev, label)
			}
			seen[member] = fmt.Sprintf("room %d panel", label)
		}

		for _, slot := range Slots() {
			members := room.Teams[slot]
			if len(members) < 1 || len(members) > 2 {
				return fmt.Errorf("allocation: room %d slot %s has %d members, want 1-2", label, slot, len(members))
			}
			for _, member := range members {
				s, ok := signups[member]
				if !ok {
					return fmt.Errorf("allocation: room %d slot %s contains unknown member %d", label, slot, member)
				}
				if !s.AsSpeaker {
					return fmt.Errorf("allocation: member %d speaks in room %d without the speaker flag", member, label)
				}
				if prev, dup := seen[member]; dup {
					return fmt.Errorf("allocation: member %d appears both as %s and in room %d slot %s", member, prev, label, slot)
				}
				seen[member] = fmt.Sprintf("room %d slot %s", label, slot)
			}
		}
	}

	for member := range signups {
		if _, ok := seen[member]; !ok {
			return fmt.Errorf("allocation: member %d was not placed anywhere", member)
		}
		a, ok := assignments[member]
		if !ok {
			return fmt.Errorf("allocation: member %d has no assignment entry", member)
		}
		if _, ok := draw[a.Room]; !ok {
			return fmt.Errorf("allocation: member %d assigned to missing room %d", member, a.Room)
		}
	}
	return nil
}
