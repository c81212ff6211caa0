// Package httpapi serves pages of table rows over HTTP.
//
// Page requests are read from query parameters:
//
//	GET /tables/events?page=2&size=10&sort=created_on,status,asc&sort=name,desc
//
// "page" is zero-based. "sort" may be repeated; each value is either a list of
// fields optionally followed by a direction that applies to all of them, or a
// list of fields each carrying a "+" (ascending) or "-" (descending) prefix:
//
//	sort=created_on,asc
//	sort=-created_on,+name
//
// Errors are reported as JSON objects with "code", "message", and optional
// "additional" members.
package httpapi
