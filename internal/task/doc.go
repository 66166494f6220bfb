// Package task runs long operations outside the request/response cycle and
// records their lifecycle in the cache so clients can poll for results.
//
// A handler creates a Record synchronously, submits a Task to the Runner and
// returns the task id. The Task reports stages through a Reporter until it
// reaches a terminal status. The Poller is the read side of that contract.
package task
