// Package shell is the terminal front end: it selects a view from the
// current route and runs that view's command loop.
package shell

// View is one of the client's screens.
type View int

const (
	ViewLanding View = iota
	ViewProfile
)

const (
	HomeRoute    = "/"
	ProfileRoute = "/profile"
)

// Select returns the view for route: the profile view for exactly
// ProfileRoute and the landing view for anything else.
func Select(route string) View {
	if route == ProfileRoute {
		return ViewProfile
	}
	return ViewLanding
}

func (v View) String() string {
	if v == ViewProfile {
		return "profile"
	}
	return "landing"
}
