// Package chaos runs the chaos game: a point repeatedly moves toward a
// randomly chosen vertex, contracting by that vertex's ratio.
package chaos
