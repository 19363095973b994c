// Package retry provides the bounded retrier used for cloud API calls and for
// polling asynchronous cloud operations until they settle.
//
// [Do] retries an operation a fixed number of times with a delay between
// attempts (optionally growing by a multiplier). [Poll] builds on it for
// status checks where "not ready yet" is an expected answer rather than an
// error.
package retry
