// Package storage provides the order repository and failure log.
//
// Implementations:
//   - postgres: gorm over PostgreSQL (the tests run the same code on sqlite)
//   - memory: In-memory for testing and single-node development
package storage
