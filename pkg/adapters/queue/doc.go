// Package queue provides job queue implementations.
//
// Implementations:
//   - redis: Redis Streams with consumer groups and reclaiming of stale entries
//   - memory: In-memory for testing
package queue
