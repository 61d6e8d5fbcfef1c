package docs

import "strings"

// containsPathTraversal reports whether any segment of path is ".."
func containsPathTraversal(path string) bool {
	for _, part := range splitPath(path) {
		if part == ".." {
			return true
		}
	}
	return false
}

// splitPath splits a path on both separators, dropping empty segments
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}
