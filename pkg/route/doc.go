// Package route defines page routes and the guards that decide whether a
// navigation may proceed.
//
// Routes nest: a child path is joined to its parent's. A Priority route is
// served when no other route matches.
//
//	table, err := route.NewTable([]route.Route{
//	    {Path: "/", Page: "home", Priority: true},
//	    {Path: "/tasks", Page: "tasks", Children: []route.Route{
//	        {Path: ":id", Page: "task"},
//	    }},
//	})
//
// A Guard sees the current and the next path and either allows the
// navigation or names a redirect. Middleware applies a guard to HTTP
// navigations.
package route
