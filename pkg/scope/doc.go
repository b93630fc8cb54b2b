// Package scope provides the Page and Dialog scopes that own a live tree.
//
// A scope holds a JavaScript state (a goja runtime), a template, and the
// machinery that keeps the live tree in sync with it: every render
// interpolates the template, reconciles the result into the live tree,
// resolves directives and applies the listeners they subscribed.
//
// # Templates
//
// {{ expr }} is replaced by the HTML-escaped value of expr. {{{ expr }}}
// inserts the value as markup:
//
//	page, err := scope.NewPage("counter",
//	    `<p>{{ count }}</p><button (click)="count++">+</button>`,
//	    scope.WithScript("var count = 0"),
//	)
//	err = page.Mount(ctx)
//
// # Dialogs
//
// A Dialog is a second tree owned by a page. It shares the page's state and
// is rendered together with it while open. Scripts open and close dialogs
// with openDialog(name) and closeDialog(name).
//
// Scopes are not safe for concurrent use. Callers serialize Dispatch, Render
// and HTML per page.
package scope
