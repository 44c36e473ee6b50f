package ws

// roomSeparator joins the two participant ids of a conversation room.
const roomSeparator = "-"

// PairwiseRoom returns the conversation room name for two user ids. The ids are
// ordered lexicographically before joining, so both participants compute the
// same name: PairwiseRoom(a, b) == PairwiseRoom(b, a).
func PairwiseRoom(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + roomSeparator + b
}
