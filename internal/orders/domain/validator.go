package domain

// CanTransition reports whether moving dim from one state to another is an
// edge of the registry. Unknown dimensions and states are never legal.
func CanTransition(dim Dimension, from, to string) bool {
	g, ok := graphs[dim]
	if !ok {
		return false
	}
	if _, ok := g[to]; !ok {
		return false
	}
	for _, candidate := range g[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CanTransitionReturn reports whether a return request may move from one status to another
func CanTransitionReturn(from, to ReturnStatus) bool {
	for _, candidate := range returnTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
