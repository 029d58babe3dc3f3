package reaction

import "fmt"

// Transition is the outcome of applying a requested kind to the current one.
type Transition struct {
	Next         Kind
	LikeDelta    int
	DislikeDelta int
	Action       Action
}

// Decide computes the toggle transition. Asking for the kind already held
// removes it, asking for the opposite kind flips it in a single step, and
// asking from None adds it.
func Decide(current, requested Kind) (Transition, error) {
	if !requested.Requestable() {
		return Transition{}, fmt.Errorf("%w: requested %s", ErrInvalidReactionKind, requested)
	}
	if !current.Valid() {
		return Transition{}, fmt.Errorf("%w: stored %s", ErrInvalidReactionKind, current)
	}

	switch {
	case current == KindNone:
		t := Transition{Next: requested, Action: ActionAdded}
		t.addDelta(requested, 1)
		return t, nil
	case current == requested:
		t := Transition{Next: KindNone, Action: ActionRemoved}
		t.addDelta(current, -1)
		return t, nil
	default:
		t := Transition{Next: requested, Action: ActionChanged}
		t.addDelta(current, -1)
		t.addDelta(requested, 1)
		return t, nil
	}
}

func (t *Transition) addDelta(k Kind, n int) {
	switch k {
	case KindLike:
		t.LikeDelta += n
	case KindDislike:
		t.DislikeDelta += n
	}
}
