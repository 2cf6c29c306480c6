// Package forkmerge copies a mango work tree into an independent fork and
// merges a fork back without letting its .mango metadata replace the origin's.
package forkmerge
