// Package async runs independent per-host operations concurrently.
//
// [RunAll] starts one goroutine per task, waits for every task and joins
// all errors; a failing task never cancels or shortens another.
package async
