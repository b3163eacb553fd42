// Package search implements a generic best-first (A*) search engine.
//
// A Problem bundles the initial state, the goal test, the successor function,
// the heuristic and a key function mapping states to the reached-set key.
// The engine keeps a best-cost map keyed by Key, so a key reached again with
// a lower cost is re-opened while dominated duplicates are dropped. Problems
// whose keys do not capture dominance, such as states carrying a continuous
// resource, can reject successors through Admit.
//
// Frontier order: lowest f = g + h first; ties go to the lower g, then to the
// node inserted first. This makes results reproducible for a fixed successor
// order.
//
// Solve returns ErrNotFound when the frontier empties, ErrBudgetExceeded when
// the expansion cap is hit and ctx.Err() when the context is cancelled.
package search
