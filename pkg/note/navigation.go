package note

import "strings"

// ParentPath returns the path one level up, or "" when path is
// top-level.
func ParentPath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// AncestorPath returns the path n levels up, or "" when the navigation
// passes the top of the tree.
func AncestorPath(path string, n int) string {
	for ; n > 0 && path != ""; n-- {
		path = ParentPath(path)
	}
	return path
}

// RootPath returns the top-level segment of path. A top-level path is
// its own root.
func RootPath(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// Ancestor resolves the note n levels above from, if one exists at that
// path.
func Ancestor(col Collection, from *Note, n int) (*Note, bool) {
	path := AncestorPath(from.Path, n)
	if path == "" {
		return nil, false
	}
	return col.ByPath(path)
}

// Root resolves the note at the top of from's path.
func Root(col Collection, from *Note) (*Note, bool) {
	return col.ByPath(RootPath(from.Path))
}
