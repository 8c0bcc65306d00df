package server

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	page := func(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
		return s.HTMLMiddleWare(append([]func(http.HandlerFunc) http.HandlerFunc{s.SessionMiddleware}, mw...)...)
	}
	guarded := page(s.RequireSession())

	// CATALOGUE
	s.RegisterRouteHandler("GET "+RouteHome, ChainMiddleware(s.IndexHandler(), page()...))
	s.RegisterRouteHandler("GET "+RouteCourses, ChainMiddleware(s.CoursesHandler(), page()...))
	s.RegisterRouteHandler("GET "+RouteCourseDetails, ChainMiddleware(s.CourseDetailsHandler(), page()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), page()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), page()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), page()...))

	// SIGNUP
	s.RegisterRouteHandler("GET "+RouteSignup, ChainMiddleware(s.SignupGetHandler(), page()...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), page()...))

	// Protected pages (require a logged in session)
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), guarded...))
	s.RegisterRouteHandler("GET "+RouteCourseProgress, ChainMiddleware(s.CourseProgressHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteCourseEnroll, ChainMiddleware(s.EnrollHandler(), guarded...))
	s.RegisterRouteHandler("GET "+RouteSettings, ChainMiddleware(s.SettingsGetHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteSettingsProfile, ChainMiddleware(s.SettingsProfilePostHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteSettingsPassword, ChainMiddleware(s.SettingsPasswordPostHandler(), guarded...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionStateHandler(), s.APIMiddleware(s.SessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	s.RegisterRouteFunc("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
