// Package dag is the scheduling layer of the synthesis pipeline. It holds a
// Directed Acyclic Graph of named tasks and executes them concurrently on a
// worker pool, each task starting once all of its dependencies are done.
//
// A failing task cancels the run and marks everything downstream of it as
// skipped; Run reports the first real failure.
package dag
