// Package cache provides active order cache implementations.
//
// Implementations:
//   - redis: JSON values under active:order:<id> with a one hour TTL
//   - memory: In-memory with lazy TTL eviction, for testing
package cache
