// Package control turns host input into gesture-controller calls.
//
// Hosts differ in how they report the pointer: the terminal delivers press,
// motion and release events, while the window host polls button state once
// per frame. [Poller] converts polled state into the same edge events, and
// [Bindings] maps keys to parameter changes shared by every host:
//
//	v/V  viscosity up/down     d/D  diffusion up/down
//	i/I  iterations up/down    r/R  resolution up/down
//	m/M  density up/down       c    clear the grid
//
// Parameter actions go through [Apply], which calls the controller's
// setters so the solver sees the change on its next step.
package control
