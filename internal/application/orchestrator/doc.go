// Package orchestrator implements order intake.
//
// The order service accepts swap requests by:
//   - Validating token symbols and the amount
//   - Persisting the order as pending
//   - Enqueueing the execute-order job that drives it
//
// It also serves the paginated order and failure listings.
package orchestrator
