// Package viz is the terminal host for the paint loop.
//
// [App] is a Bubble Tea model. The density buffer is scaled onto a [Canvas]
// of upper-half-block cells, so every terminal cell shows two pixels. Mouse
// press, motion and release drive the gesture controller; ticks from a
// sim.TickerScheduler are posted into the same program queue.
//
// # Key Bindings
//
//	v/V  viscosity up/down
//	d/D  diffusion up/down
//	i/I  solver iterations up/down
//	r/R  resolution up/down
//	m/M  injected density up/down
//	c    clear
//	s    save a PNG snapshot
//	g    toggle GIF recording
//	t    cycle themes
//	q    quit
//
// Snapshots and recordings are written to the working directory.
package viz
