// Package mode defines the closed set of Vim editing modes and a small
// manager that tracks the active mode of one editing surface.
//
// Modes:
//   - Normal, Insert, Replace
//   - Visual, VisualLine, VisualBlock and the matching Select kinds
//   - OperatorPending: an operator is waiting for its motion
//   - CommandLine: an Ex, search or expression line is being typed
//
// Each mode consults one mapping table (MapMode). The engine reads and
// changes the mode only through the Reporter interface, so a host can
// keep mode state in its own editor model.
package mode
