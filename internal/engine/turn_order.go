package engine

import "slices"

// Successor returns the player after id in join order, wrapping to the first.
// Disconnected players stay in the rotation so they keep their seat if they
// come back.
func (s *State) Successor(id string) string {
	return nextInOrder(s.Order, id)
}

func nextInOrder(order []string, id string) string {
	if len(order) == 0 {
		return ""
	}
	i := slices.Index(order, id)
	if i < 0 {
		return order[0]
	}
	return order[(i+1)%len(order)]
}
