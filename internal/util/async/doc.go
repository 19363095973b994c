// Package async provides helpers for running independent tasks concurrently
// and joining their results.
//
// [RunParallel] runs named tasks and joins every error. [Map] fans out one
// goroutine per input and returns results in input order, so callers that
// concatenate them stay deterministic.
package async
