package search

import (
	"container/heap"
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no goal state is reachable.
	ErrNotFound = errors.New("search: goal not reachable")
	// ErrBudgetExceeded is returned when the expansion cap is reached.
	ErrBudgetExceeded = errors.New("search: expansion budget exceeded")
	// ErrInvalidProblem is returned when a required Problem function is nil.
	ErrInvalidProblem = errors.New("search: problem requires IsGoal, Successors and Key")
)

// Successor is one transition produced by a Problem.
type Successor[S, A any] struct {
	Action A
	State  S
	Cost   float64
}

// Problem describes a search over states S, actions A and reached-set keys K.
// Heuristic may be nil, in which case the search degenerates to uniform cost.
// Admit is optional; it is called with a successor state and its cost after
// the reached-set check and returning false drops the successor.
type Problem[S, A any, K comparable] struct {
	Initial    S
	IsGoal     func(S) bool
	Successors func(S) []Successor[S, A]
	Heuristic  func(S) float64
	Key        func(S) K
	Admit      func(S, float64) bool
}

// Node is an element of the search tree. Parent is only used to rebuild the
// action sequence once a goal is popped.
type Node[S, A any] struct {
	State  S
	Parent *Node[S, A]
	Action A
	G      float64
	H      float64

	seq   uint64
	index int
}

// F returns g + h.
func (n *Node[S, A]) F() float64 { return n.G + n.H }

// Result is the outcome of a successful search.
type Result[S, A any] struct {
	// Actions leads from the initial state to Final.
	Actions []A
	// States holds the initial state followed by the state reached after
	// each action.
	States   []S
	Final    S
	Cost     float64
	Expanded int
}

type options struct {
	maxExpansions int
	checkEvery    int
}

// Option customises Solve.
type Option func(*options)

// WithMaxExpansions caps the number of expanded nodes. Zero or negative
// disables the cap.
func WithMaxExpansions(n int) Option {
	return func(o *options) { o.maxExpansions = n }
}

// WithCancelCheckInterval sets how many expansions happen between two
// context checks. Defaults to 256.
func WithCancelCheckInterval(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.checkEvery = n
		}
	}
}

// Solve runs A* on p. When the initial state already satisfies the goal test
// an empty result is returned without entering the expansion loop.
func Solve[S, A any, K comparable](ctx context.Context, p Problem[S, A, K], opts ...Option) (Result[S, A], error) {
	o := options{checkEvery: 256}
	for _, opt := range opts {
		opt(&o)
	}
	if p.IsGoal == nil || p.Successors == nil || p.Key == nil {
		return Result[S, A]{}, ErrInvalidProblem
	}
	h := p.Heuristic
	if h == nil {
		h = func(S) float64 { return 0 }
	}
	if p.IsGoal(p.Initial) {
		return Result[S, A]{States: []S{p.Initial}, Final: p.Initial}, nil
	}

	var seq uint64
	front := &frontier[S, A]{}
	best := map[K]float64{p.Key(p.Initial): 0}
	heap.Push(front, &Node[S, A]{State: p.Initial, H: h(p.Initial)})

	expanded := 0
	for front.Len() > 0 {
		if expanded%o.checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result[S, A]{Expanded: expanded}, err
			}
		}
		n := heap.Pop(front).(*Node[S, A])
		if g, ok := best[p.Key(n.State)]; ok && n.G > g {
			continue
		}
		if p.IsGoal(n.State) {
			res := extract(n)
			res.Expanded = expanded
			return res, nil
		}
		if o.maxExpansions > 0 && expanded >= o.maxExpansions {
			return Result[S, A]{Expanded: expanded}, ErrBudgetExceeded
		}
		expanded++
		for _, s := range p.Successors(n.State) {
			g := n.G + s.Cost
			k := p.Key(s.State)
			if old, ok := best[k]; ok && old <= g {
				continue
			}
			if p.Admit != nil && !p.Admit(s.State, g) {
				continue
			}
			best[k] = g
			seq++
			heap.Push(front, &Node[S, A]{State: s.State, Parent: n, Action: s.Action, G: g, H: h(s.State), seq: seq})
		}
	}
	return Result[S, A]{Expanded: expanded}, ErrNotFound
}

func extract[S, A any](goal *Node[S, A]) Result[S, A] {
	var actions []A
	states := []S{goal.State}
	for n := goal; n.Parent != nil; n = n.Parent {
		actions = append(actions, n.Action)
		states = append(states, n.Parent.State)
	}
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}
	for i, j := 0, len(states)-1; i < j; i, j = i+1, j-1 {
		states[i], states[j] = states[j], states[i]
	}
	return Result[S, A]{Actions: actions, States: states, Final: goal.State, Cost: goal.G}
}
