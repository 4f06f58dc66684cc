// Package notify fans order status messages out to observer channels.
//
// Observers subscribe per order id. A subscriber that joins while the order
// is still cached first receives a snapshot of its current state, then every
// live transition published afterwards. Delivery is best effort and nothing
// is replayed: a message published while no channel is registered is lost.
package notify
