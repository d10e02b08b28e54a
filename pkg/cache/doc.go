// Package cache provides a generic key-value cache with TTL support.
//
// Two backends implement the Cache interface: Redis for shared
// deployments and an in-memory map for tests and single-process use.
// The Invalidator facet exposes only Delete, for consumers that evict
// entries without ever populating them (the upload pipeline invalidates
// hotel entries after attaching media; the read path repopulates).
//
// GetOrSet deduplicates concurrent cache misses with singleflight so a
// hot key is computed once, not once per waiting caller.
package cache
