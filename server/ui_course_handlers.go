package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/guard"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// CoursesPageData is the catalogue model
type CoursesPageData struct {
	Categories []backend.Category
	Courses    []backend.Course
	CategoryID int
	Search     string
}

// CourseDetailsPageData is the course page model
type CourseDetailsPageData struct {
	Course   *backend.CourseDetails
	Enrolled bool
}

// ProgressPageData is the lesson progress model
type ProgressPageData struct {
	Course     *backend.CourseDetails
	Curriculum []backend.CurriculumModule
	Lessons    int
	Minutes    int
}

// CoursesHandler lists the catalogue filtered by ?category= and ?q=
func (s *Server) CoursesHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("courses.html")
	if err != nil {
		panic("Failed to parse courses template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		catalogue, err := s.apiFor(r).Catalogue(r.Context())
		if err != nil {
			s.backendFailure(w, r, err, r.URL.RequestURI())
			return
		}

		categoryID, _ := strconv.Atoi(r.URL.Query().Get("category"))
		search := r.URL.Query().Get("q")

		data := CoursesPageData{CategoryID: categoryID, Search: search}
		var all []backend.Course
		for _, group := range catalogue {
			data.Categories = append(data.Categories, group.Category)
			all = append(all, group.Courses...)
		}
		data.Courses = backend.FilterCourses(all, categoryID, search)

		s.render(w, r, tmpl, http.StatusOK, s.page(r, data))
	}
}

// CourseDetailsHandler shows a course outline. Logged in visitors also see whether they
// are enrolled.
func (s *Server) CourseDetailsHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("course_details.html")
	if err != nil {
		panic("Failed to parse course details template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := courseIDFromPath(w, r)
		if !ok {
			return
		}
		api := s.apiFor(r)

		details, err := api.CourseDetails(r.Context(), courseID)
		if err != nil {
			s.backendFailure(w, r, err, r.URL.RequestURI())
			return
		}

		data := CourseDetailsPageData{Course: details}
		if s.sessionState(r).IsAuthenticated {
			enrollments, err := api.Enrollments(r.Context())
			switch {
			case err == nil:
				data.Enrolled = backend.IsEnrolled(enrollments, courseID)
			case sessionLost(err):
				// The page is public; it renders for the now anonymous visitor.
			default:
				log.Err(err).Int("course_id", courseID).Msg("Failed to load enrollments")
			}
		}

		s.render(w, r, tmpl, http.StatusOK, s.page(r, data))
	}
}

// CourseProgressHandler shows the modules and lessons of an enrolled course
func (s *Server) CourseProgressHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("progress.html")
	if err != nil {
		panic("Failed to parse progress template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := courseIDFromPath(w, r)
		if !ok {
			return
		}
		api := s.apiFor(r)

		var data ProgressPageData
		var enrolled bool
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) {
			data.Course, err = api.CourseDetails(ctx, courseID)
			return err
		})
		g.Go(func() (err error) {
			data.Curriculum, err = api.Curriculum(ctx, courseID)
			return err
		})
		g.Go(func() error {
			enrollments, err := api.Enrollments(ctx)
			enrolled = backend.IsEnrolled(enrollments, courseID)
			return err
		})
		if err := g.Wait(); err != nil {
			s.backendFailure(w, r, err, r.URL.RequestURI())
			return
		}
		if !enrolled {
			redirectWithError(w, r, coursePath(courseID), "Enroll in this course to track your progress.")
			return
		}

		for _, m := range data.Curriculum {
			data.Lessons += len(m.Lessons)
			data.Minutes += m.TotalDuration()
		}
		s.render(w, r, tmpl, http.StatusOK, s.page(r, data))
	}
}

// EnrollHandler enrolls the visitor and opens the course progress page
func (s *Server) EnrollHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := courseIDFromPath(w, r)
		if !ok {
			return
		}

		_, err := s.apiFor(r).Enroll(r.Context(), courseID)
		switch classified := errors.Classify(err, false); {
		case err == nil:
			redirectSuccess(w, r, courseProgressPath(courseID))
		case sessionLost(err):
			redirectSuccess(w, r, guard.LoginLocation(coursePath(courseID)))
		case errors.Is(classified, errors.ErrValidation):
			redirectWithError(w, r, coursePath(courseID), userMessage(classified))
		default:
			s.backendFailure(w, r, err, coursePath(courseID))
		}
	}
}

func courseIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}
