// Package task describes a single task dispatch. The Info value travels
// from the sequence to the executor, through middleware, and into
// lifecycle hooks so every layer can label what it is running without
// depending on the generic sequence type.
package task
