// Package guard decides whether a protected page may render for a session.
package guard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/academy-storefront/session"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// NextParam carries the originally requested location through the login page.
const NextParam = "next"

// Action is the outcome of evaluating a protected route.
type Action int

const (
	Render Action = iota
	Loading
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is what the caller should do. Location is set for Redirect only.
type Decision struct {
	Action   Action
	Location string
}

// Evaluate never redirects while the session is still loading.
func Evaluate(state session.State, requested string) Decision {
	switch {
	case state.IsLoading:
		return Decision{Action: Loading}
	case !state.IsAuthenticated:
		return Decision{Action: Redirect, Location: LoginLocation(requested)}
	}
	return Decision{Action: Render}
}

// LoginLocation is the login page URL returning to requested afterwards.
func LoginLocation(requested string) string {
	next := SafeNext(requested)
	if next == "/" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{NextParam: {next}}.Encode()
}

// SafeNext returns next if it is a local path, "/" otherwise. Absolute URLs,
// protocol-relative paths and links back to the login page are rejected.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if u.Path == LoginPath || strings.HasPrefix(u.Path, LoginPath+"/") {
		return "/"
	}
	return u.RequestURI()
}
