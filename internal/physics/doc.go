// Package physics provides the fluid solver driven by the paint loop.
//
// [StableFluid] is a semi-Lagrangian solver on a square grid implementing
// [dynamo.Solver]. Each [StableFluid.Step] first hands the grid to the
// registered impulse callback, then diffuses, projects and advects:
//
//	s, _ := physics.NewStableFluid(128)
//	s.SetOnStep(func(g dynamo.GridWriter) { g.SetDensity(64, 64, 90) })
//	s.Step()
//
// Writes outside the grid are ignored, so callers may pass unchecked cells.
package physics
