// Package reminis is an incremental-computation cache for single-process
// pipelines of pure functions.
//
// A pipeline is an ordered list of Proc descriptors wired into a dependency
// DAG. Evaluating the pipeline resolves the value of the last proc (the
// sink): any proc whose function version, arguments, and upstream
// dependencies are unchanged since the previous run is served from the
// on-disk cache, and everything else is recomputed. Results and per-proc
// metadata persist across runs under a cache root directory.
//
// Evaluation is single-threaded and demand-driven. The cache root has no
// locking discipline: concurrent pipeline runs targeting the same store can
// race on records.
package reminis
