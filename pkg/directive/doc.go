// Package directive binds template attributes to behavior on the live tree.
//
// A directive is selected by an attribute name on an element, such as
// (click) or [(model)]. The Resolver walks the live tree after every
// reconcile, creates one directive instance per element and directive type,
// and calls Resolve for each matching attribute. Directives subscribe event
// listeners through the Binder, which records them in a listener.Registry as
// pending subscriptions; the caller applies them once the pass is complete.
//
// # Scopes
//
// Directives never know what kind of scope they run in. A Scope renders and
// compiles expressions; pages and dialogs both implement it. Scopes that
// also implement VarScope receive the $event variable while a handler runs:
//
//	<button (click)="count = count + 1">+</button>
//	<input [(model)]="form.name" (input)="touched = true">
//
// # Lifecycle
//
// Bindings are keyed by node and attribute. A binding whose attribute value
// did not change between passes is kept as is. A changed value is destroyed
// and resolved again. When the reconciler removes a node, Release drops every
// binding and subscription of its subtree.
package directive
