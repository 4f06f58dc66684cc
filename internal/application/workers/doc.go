// Package workers executes swap orders taken from the job queue.
//
// The worker pool runs a fixed number of goroutines that:
//   - Dequeue execute-order jobs, throttled by a shared rate limiter
//   - Drive each order through routing, building and confirmation
//   - Retry failed attempts with exponential backoff, resuming from the
//     last persisted status
//   - Mark the order failed and append to the failure log once the attempt
//     budget is spent
//
// The health monitor tracks worker status, samples the queue depth and
// reports health changes to registered observers.
package workers
