// Package dom provides the live document model used by Nimble.
//
// The live tree is a golang.org/x/net/html node tree held in memory. Node
// identity is pointer identity: two nodes with the same tag and attributes are
// still different nodes, and everything that tracks per-node state (event
// listeners, directive bindings) keys on the *html.Node pointer.
//
// # Nodes
//
// Element and Text are the only kinds the reconciler and the directive engine
// look at. Helpers in this package build, inspect and mutate them:
//
//	root := dom.Element("div", dom.Attrs("class", "card"),
//	    dom.Element("h1", nil, dom.Text("Title")),
//	    dom.Element("button", dom.Attrs("(click)", "count++"), dom.Text("+")),
//	)
//
// # Events
//
// Document is the event target of a live tree. Listeners are attached per
// node and event type, and Dispatch runs the capture, target and bubble phases
// the way a browser does:
//
//	doc := dom.NewDocument(root)
//	doc.AddEventListener(button, "click", &dom.Listener{Handle: onClick})
//	doc.Dispatch(ctx, button, dom.NewEvent("click", true, nil))
package dom
