// Package render turns a solver density field into RGBA pixels.
//
// Each cell maps to one pixel. Red grows with the column, green with the
// row and blue with density alone; all three are scaled by 255/5 and stored
// through [Channel], which clamps to the byte range.
//
// Grids must be square: pixel offsets use the grid height as the row stride.
package render
