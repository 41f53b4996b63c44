// Package dynamo defines the contracts shared by the density renderer, the
// gesture controller and the fluid solver they drive.
//
//   - [Solver]: the external solver, stepped once per tick
//   - [GridWriter]: write-only view handed to the per-step impulse callback
//   - [DensityGrid]: read-only view used by renderers
//   - [Point], [Cell]: display-pixel and grid-cell coordinates
//
// # Coordinate Spaces
//
// Pointer positions arrive in display pixels. The controller converts them to
// cells by scaling with grid size over canvas size and flooring. Converted
// cells are not bounds-checked; implementations of [GridWriter] must ignore
// or clamp out-of-range writes.
package dynamo
