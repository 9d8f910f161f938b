// Package heartbeat keeps a KV entry alive by rewriting it on an interval.
//
// The node graph bucket is created with a TTL, so the entry of a node whose
// process died without cleanup expires on its own. A live node must therefore
// rewrite its entry more often than the TTL. The Publisher does this in a
// background goroutine and deletes the entry on Stop.
//
// # Publisher Lifecycle
//
//  1. Create publisher with New(kv, key, interval, payload)
//  2. Start publishing with Start(ctx); the first write happens immediately
//  3. Call Publish(ctx) to push a changed payload without waiting for the next tick
//  4. Stop with Stop(ctx), which deletes the entry
//
// Example:
//
//	publisher := heartbeat.New(kv, node.ID, ttl/3, func() (any, error) {
//	    return node.Snapshot(), nil
//	})
//	if err := publisher.Start(ctx); err != nil {
//	    return err
//	}
//	defer publisher.Stop(ctx)
//
// # Interval
//
// Use an interval of about a third of the bucket TTL: an entry then survives
// two missed writes before it expires.
//
// # Thread Safety
//
// The Publisher is safe for concurrent use. The payload function is called
// from the background goroutine as well as from Start and Publish, so it must
// be safe to call concurrently with the code that changes its data.
package heartbeat
