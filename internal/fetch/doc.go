// Package fetch reads and writes documents by location.
//
// A location is a local file path, a file:// URL, an http(s) URL or an
// s3://bucket/key URL. HTTP locations are read-only.
//
//	f := fetch.New()
//	data, err := f.ReadAll(ctx, "s3://pages/home.html")
package fetch
