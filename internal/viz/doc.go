// Package viz is the terminal live view of a particle jar.
//
// The view is a Bubble Tea program:
//
//   - [Model]: steps one jar per tick and draws it
//   - [Picker]: preset menu that opens a [Model]
//   - [Canvas]: braille dot grid the jar is projected onto
//
// # Key Bindings
//
//	T      - Tilt the jar
//	R      - Reset (takes effect on the next frame)
//	Space  - Pause/Resume
//	A      - Toggle the active flag (idle sway)
//	Arrows - Orbit the camera
//	+/-    - Zoom
//	C      - Cycle color themes
//	Q      - Quit
package viz
