// Package view turns the store into text pages.
//
// ROUTES:
//
//	/           landing page (sign-in hints, or a greeting for the cached user)
//	/community  community feed
//
// Anything else resolves to NotFound. Rendering only reads the store; it
// never calls the API.
package view

import (
	"path"
	"strings"
)

// Page is a top-level page.
type Page int

const (
	NotFound Page = iota
	Landing
	Community
)

func (p Page) String() string {
	switch p {
	case Landing:
		return "landing"
	case Community:
		return "community"
	default:
		return "not found"
	}
}

// Resolve maps a URL path to its page. A trailing slash and duplicate
// slashes are ignored; matching is case-sensitive.
func Resolve(urlPath string) Page {
	if urlPath == "" {
		return Landing
	}
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	switch path.Clean(urlPath) {
	case "/":
		return Landing
	case "/community":
		return Community
	default:
		return NotFound
	}
}
