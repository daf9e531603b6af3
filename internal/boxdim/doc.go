// Package boxdim estimates the box-counting dimension of a point cloud.
//
// For each box size s every point is mapped to the grid cell
// (floor(x/s), floor(y/s)) and the distinct cells are counted. The
// dimension is the negative slope of the least-squares line through
// (log s, log count).
package boxdim
