package server

import "strconv"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Catalogue
	RouteHome          = "/{$}"
	RouteCourses       = "/courses"
	RouteCourseDetails = "/course/{id}"

	// Auth Routes - Login, Signup & Logout
	RouteLogin  = "/login"
	RouteSignup = "/signup"
	RouteLogout = "/logout"

	// Protected pages
	RouteDashboard        = "/dashboard"
	RouteCourseProgress   = "/course/{id}/progress"
	RouteCourseEnroll     = "/course/{id}/enroll"
	RouteSettings         = "/settings"
	RouteSettingsProfile  = "/settings/profile"
	RouteSettingsPassword = "/settings/password"

	// API Routes
	RouteAPISession = "/api/session"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)

// Paths used for redirects
const (
	PathHome      = "/"
	PathDashboard = "/dashboard"
	PathSettings  = "/settings"
)

// coursePath and friends fill the {id} routes.
func coursePath(id int) string {
	return "/course/" + strconv.Itoa(id)
}

func courseProgressPath(id int) string {
	return coursePath(id) + "/progress"
}
