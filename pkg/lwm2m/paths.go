// Package lwm2m holds the path-set algebra and literal rendering used to build
// Coiote DM task-template parameters from LwM2M resource paths.
package lwm2m

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"
)

// Marker terminates a normalized path so that "3/0/1" never prefixes "3/0/10".
const Marker = "."

// AllPaths is the optimized form of a path set that covers every resource.
const AllPaths = ""

var sentinels = []string{"all", "", ".", "/"}

// WithMarker returns p terminated by Marker.
func WithMarker(p string) string {
	if strings.HasSuffix(p, Marker) {
		return p
	}
	return p + Marker
}

// WithoutMarker strips a single trailing Marker from p.
func WithoutMarker(p string) string {
	return strings.TrimSuffix(p, Marker)
}

// MapPaths applies fn to every path and returns the new slice.
func MapPaths(paths []string, fn func(string) string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = fn(p)
	}
	return out
}

// HasDuplicates reports whether any path occurs more than once.
func HasDuplicates(paths []string) bool {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			return true
		}
		seen[p] = struct{}{}
	}
	return false
}

// Unique removes exact duplicates, keeping the first occurrence of each path.
func Unique(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// CoversAll reports whether paths contains one of the "everything" sentinels.
func CoversAll(paths []string) bool {
	for _, p := range paths {
		if slices.Contains(sentinels, p) {
			return true
		}
	}
	return false
}

// Minimize returns the sorted minimal covering set of paths: no element is
// equal to or a descendant of another element.
func Minimize(paths []string) []string {
	marked := Unique(MapPaths(paths, WithMarker))
	sort.Strings(marked)

	kept := make([]string, 0, len(marked))
	for _, p := range marked {
		// Sorting places an ancestor right before its descendants, so only the
		// last kept path can cover p.
		if n := len(kept); n > 0 && strings.HasPrefix(p, kept[n-1]) {
			continue
		}
		kept = append(kept, p)
	}
	return MapPaths(kept, WithoutMarker)
}

// Optimize collapses paths into the comma separated string sent as the keys
// parameter of read-like operations. A sentinel anywhere yields AllPaths.
func Optimize(paths []string) string {
	if CoversAll(paths) {
		return AllPaths
	}
	return strings.Join(Minimize(paths), ",")
}

// MinimizeWithAttributes is Minimize for observe: each path carries the
// attribute at the same index and a dropped descendant drops its attribute.
// Paths must already be unique in their marked form. A path already ending in
// Marker is kept as is, so "3/0/1.." sorts after "3/0/1." and is dropped as its
// descendant.
func MinimizeWithAttributes(paths []string, attributes []json.RawMessage) ([]string, []json.RawMessage) {
	type entry struct {
		path      string
		attribute json.RawMessage
	}

	entries := make([]entry, len(paths))
	for i, p := range paths {
		entries[i] = entry{path: WithMarker(p), attribute: attributes[i]}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	keptPaths := make([]string, 0, len(entries))
	keptAttributes := make([]json.RawMessage, 0, len(entries))
	var last string
	for _, e := range entries {
		if len(keptPaths) > 0 && strings.HasPrefix(e.path, last) {
			continue
		}
		last = e.path
		keptPaths = append(keptPaths, WithoutMarker(e.path))
		keptAttributes = append(keptAttributes, e.attribute)
	}
	return keptPaths, keptAttributes
}
