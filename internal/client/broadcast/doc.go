// Package broadcast notifies other processes sharing the same credential
// store that a stored credential changed.
//
// Delivery is best-effort: a slow subscriber drops events instead of
// blocking publishers, and nothing here serialises writers. Strict
// single-writer semantics need a Lease (see RedisLease), held by the vault
// for as long as its credential exists.
package broadcast
