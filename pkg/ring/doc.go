// Package ring implements the circular byte buffer behind stream-typed
// data-store keys: one writer pushes, the single subscriber drains.
package ring
