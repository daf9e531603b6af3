// Package fractal holds the data model shared by the chaos-game generator
// and the dimension estimators.
//
//   - [Vertex]: fixed corner of the polygon the game is played on
//   - [Point], [PointSequence]: generated records tagged with their step index
//   - [Weights]: vertex selection probabilities
//   - [Ratios]: per-vertex contraction ratios
//
// Operations that reject their input return errors wrapping
// [ErrInvalidArgument]; solvers that cannot bracket a root wrap
// [ErrNonConvergent].
package fractal
