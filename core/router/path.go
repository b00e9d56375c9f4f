package router

import (
	"strings"
)

// NormalizePath turns a request path into a lookup key: everything from the first
// '?' or '#' is dropped, a leading slash is ensured and a trailing slash is
// stripped unless the path is the root.
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return normalize(p)
}

// normalize ensures a leading slash and strips a trailing one, keeping "/" intact.
func normalize(p string) string {
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	if len(p) > 1 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

// joinPath prefixes p with prefix. An empty or root prefix leaves p unchanged.
func joinPath(prefix, p string) string {
	if prefix == "" || prefix == "/" {
		return p
	}
	if p == "/" {
		return prefix
	}
	return prefix + p
}

// toPattern rewrites ":name" segments to the "{name}" form used by the tree.
func toPattern(p string) string {
	if !strings.Contains(p, ":") {
		return p
	}

	segs := strings.Split(p, "/")
	for i, s := range segs {
		if len(s) > 1 && s[0] == ':' {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}
