// Package listener tracks event listener subscriptions for a live tree.
//
// Subscribing does not touch the tree. A subscription is recorded as pending
// and attached later by ApplyAll, once the render pass that produced it has
// finished. This keeps a render atomic with respect to listeners: nothing a
// directive binds during a render can fire before the tree is fully patched.
//
// # Ordering
//
// ApplyAll attaches internal subscriptions before user subscriptions, and
// keeps subscription order otherwise. Internal listeners are how the
// framework prepares state (such as writing an input value into scope)
// before user callbacks on the same node and event observe it.
//
//	reg := listener.New(doc)
//	reg.Subscribe(input, "input", syncModel, listener.Internal())
//	reg.Subscribe(input, "input", onInput)
//	reg.ApplyAll() // syncModel runs first
//
// # Teardown
//
// Every Subscribe returns a Detach handle. Calling it more than once, or after
// the node left the tree, is a no-op. UnsubscribeAllFromElement releases
// every subscription of one node, UnsubscribeAll drains the registry in
// reverse subscription order.
//
// A Registry is not safe for concurrent use. It is owned by one render root
// and used from the goroutine that serializes that root's events.
package listener
