// Package ringcast distributes values from a producer to any number of
// consumers through a ring.Storage. Every consumer holds its own reader and
// sees each value at most once. Consumers that fall behind lose the oldest
// values instead of holding the producer back.
//
// Channel adds the locking ring.Storage leaves to its caller. Poller and
// Waiter turn a Channel's non-blocking TryNext into a blocking Next.
package ringcast
