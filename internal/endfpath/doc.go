// internal/endfpath/doc.go

/*
Package endfpath addresses values inside a parsed result mapping.

A path is a slash-separated sequence of segments, e.g. `3/1/xstable/xs[2]`.
Numeric segments are index keys, other segments are section or variable
names. A bracketed index list is shorthand for successive index segments,
so `a[1,2]` and `a/1/2` address the same value.
*/
package endfpath
