package catalog

import "strings"

// ImageResolver turns stored image references into URLs a remote client can fetch.
// Stored references may be bare file names, /images/ paths, or absolute URLs.
type ImageResolver struct {
	BaseURL string
}

// Resolve leaves absolute URLs alone and anchors everything else under BaseURL/images/.
func (r ImageResolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || r.BaseURL == "" {
		return ref
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	path := strings.TrimLeft(ref, "/")
	if !strings.HasPrefix(path, "images/") {
		path = "images/" + path
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + path
}
