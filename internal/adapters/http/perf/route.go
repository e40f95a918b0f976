package perf

import "strings"

// RouteTemplate collapses numeric path segments to "{id}" so per-record
// paths aggregate under one entry. Only all-digit segments are collapsed,
// which covers participation.Record.ID; non-numeric ids would each get their
// own entry.
func RouteTemplate(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s != "" && strings.Trim(s, "0123456789") == "" {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
