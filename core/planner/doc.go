// Package planner computes multi-leg routes for an electric vehicle.
//
// The adaptive strategy plans a plain shortest leg to the goal and checks it
// against the vehicle ledger. When the leg is not affordable the Locator
// picks a charging station, the leg to that station is kept, the vehicle
// recharges and planning resumes from the station. Every used station is
// consumed in a per-run availability overlay, which bounds the number of
// cycles by the number of stations.
//
// The energy strategy runs a single energy-state search that recharges in
// place at available stations.
package planner
