package allocation

import "sort"

// Room is a reconstructed draw room: the judging panel plus the four team
// slots. Member slices are kept sorted so serialized rooms are stable across
// runs.
type Room struct {
	Panel []int64              `json:"panel"`
	Teams map[TeamSlot][]int64 `json:"teams"`
}

// Draw maps stable-but-arbitrary room labels (assigned during problem
// construction) to rooms. Callers wanting a display order should sort by an
// externally meaningful key after persistence. Draws round-trip losslessly
// through JSON, which is how draft blobs are stored.
type Draw map[int]Room

// ReconstructRooms turns the flat assignment map into structured rooms.
// Applying it twice to the same assignments yields structurally equal draws.
func ReconstructRooms(assignments map[int64]Assignment) Draw {
	draw := Draw{}
	for member, a := range assignments {
		room, ok := draw[a.Room]
		if !ok {
			room = Room{Teams: map[TeamSlot][]int64{}}
		}
		if a.Judge {
			room.Panel = append(room.Panel, member)
		} else {
			room.Teams[a.Slot] = append(room.Teams[a.Slot], member)
		}
		draw[a.Room] = room
	}
	for _, room := range draw {
		sort.Slice(room.Panel, func(i, j int) bool { return room.Panel[i] < room.Panel[j] })
		for _, members := range room.Teams {
			sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		}
	}
	return draw
}
