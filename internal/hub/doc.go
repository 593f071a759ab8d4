// Package hub implements the subscription and broadcast layer.
//
// The hub maps each symbol to the set of connections interested in it
// and fans one price-changed event out to exactly that set. Interest
// sets are created per symbol at construction and each carries its own
// lock, so subscribe traffic on one symbol never contends with fan-out
// on another. A connection's own subscribed-set is tracked under a
// separate registry lock; the two sides are kept consistent by
// construction.
//
// Pushes are best-effort: a send that fails is treated as a dead
// connection and the connection is pruned from every set it belongs to.
// Fan-out never blocks on a slow subscriber.
package hub
