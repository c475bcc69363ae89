// Package physics advances the rigid bodies streamed into the jar.
//
// A [World] holds dynamic bodies and the static jar colliders. Each render
// frame calls [World.Step], which runs fixed sub-steps (capped per frame so a
// stalled frame cannot build an ever-growing backlog) and returns one
// [Report] per live body.
//
// Bodies collide as spheres, except cubes which use an oriented box. Static
// geometry is built from a container.Collider:
//
//   - the floor disc as an upright cylinder
//   - wall segments as oriented boxes
//   - the optional safety floor as a plane
//
// # Sleeping
//
// A body whose speed stays under Params.SleepSpeedLimit for longer than
// Params.SleepTimeLimit stops integrating and acts as an immovable partner
// until an impact or a gravity change wakes it.
package physics
