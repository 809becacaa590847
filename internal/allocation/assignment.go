// Package allocation builds British Parliamentary draws. Signups are turned
// into a 0/1 integer program whose feasible points are exactly the valid
// draws and whose objective balances team skill and judge load, minimizes the
// number of rooms, and rewards honoring mutual partner preferences.
package allocation

import "fmt"

// TeamSlot is one of the four BP team positions, in speaking order.
type TeamSlot int

const (
	SlotOG TeamSlot = iota // Opening Government
	SlotOO                 // Opening Opposition
	SlotCG                 // Closing Government
	SlotCO                 // Closing Opposition
)

var slotNames = [...]string{"og", "oo", "cg", "co"}

func (s TeamSlot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

func (s TeamSlot) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(slotNames) {
		return nil, fmt.Errorf("allocation: invalid team slot %d", int(s))
	}
	return []byte(slotNames[s]), nil
}

func (s *TeamSlot) UnmarshalText(text []byte) error {
	for i, name := range slotNames {
		if string(text) == name {
			*s = TeamSlot(i)
			return nil
		}
	}
	return fmt.Errorf("allocation: unknown team slot %q", text)
}

// Slots lists the four team slots in speaking order.
func Slots() [4]TeamSlot {
	return [4]TeamSlot{SlotOG, SlotOO, SlotCG, SlotCO}
}

// Assignment places one participant in a draw: either on a team slot of a
// room or on the room's judging panel.
type Assignment struct {
	Room  int      `json:"room"`
	Judge bool     `json:"judge"`
	Slot  TeamSlot `json:"slot"` // meaningful only when Judge is false
}

// Signup is one participant's registration for a session. At least one of
// AsJudge and AsSpeaker is always set; a record with neither is a programmer
// error upstream. PartnerPreference, when non-nil, names another member the
// participant would like to speak with; the wish is honored with a soft bonus
// only when mutual and never makes a draw infeasible.
type Signup struct {
	MemberID          int64
	AsJudge           bool
	AsSpeaker         bool
	PartnerPreference *int64
}
