package core

import "strings"

// RouteTable decides page access from cookie presence alone.
// Token validity is checked later by the actions themselves.
type RouteTable struct {
	Public    []string // exact paths
	Protected []string // path prefixes
	Login     string
	Home      string
}

func DefaultRouteTable() RouteTable {
	return RouteTable{
		Public:    []string{"/", "/login", "/register"},
		Protected: []string{PathDashboard, PathMaterials, PathFlashcards},
		Login:     "/login",
		Home:      PathDashboard,
	}
}

// Decide returns the location to redirect to, or "" to let the request through
func (r RouteTable) Decide(path string, hasToken bool) string {
	if !hasToken && r.IsProtected(path) {
		return r.Login
	}
	if hasToken && r.isAuthPage(path) {
		return r.Home
	}
	return ""
}

func (r RouteTable) IsProtected(path string) bool {
	for _, prefix := range r.Protected {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (r RouteTable) IsPublic(path string) bool {
	for _, p := range r.Public {
		if path == p {
			return true
		}
	}
	return false
}

// isAuthPage reports whether path is a public page other than the landing page
func (r RouteTable) isAuthPage(path string) bool {
	return path != "/" && r.IsPublic(path)
}
