package server

import (
	"net/http"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/rs/zerolog/log"
)

const featuredCourses = 3

// IndexPageData is the home page model
type IndexPageData struct {
	Featured []backend.Course
}

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		page := s.page(r, nil)

		courses, err := s.apiFor(r).Courses(r.Context())
		if err != nil {
			// The landing page still renders without the course strip.
			log.Err(err).Msg("Failed to load featured courses")
			page.Error = userMessage(err)
		}
		if len(courses) > featuredCourses {
			courses = courses[:featuredCourses]
		}
		page.Content = IndexPageData{Featured: courses}

		s.render(w, r, tmpl, http.StatusOK, page)
	}
}
