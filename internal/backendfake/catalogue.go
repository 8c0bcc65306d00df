package backendfake

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/utils"
)

func (b *Backend) seed() {
	b.addAccount(backend.Registration{
		FirstName: "Demo",
		LastName:  "Student",
		Email:     DemoEmail,
		Phone:     "0123456789",
		Password:  DemoPassword,
	}, DemoEmail)

	b.categories = []backend.Category{
		{ID: 1, Name: "Programming"},
		{ID: 2, Name: "Design"},
	}
	b.courses = []backend.Course{
		{ID: 1, Title: "Go Fundamentals", Description: "Types, interfaces and concurrency.", Price: "49.00", CategoryID: 1, InstructorID: 10, InstructorName: "Ada Lovelace"},
		{ID: 2, Title: "Web Services in Go", Description: "HTTP servers, middleware and testing.", Price: "79.00", CategoryID: 1, InstructorID: 10, InstructorName: "Ada Lovelace"},
		{ID: 3, Title: "Interface Design", Description: "Layout, colour and typography.", Price: "39.00", CategoryID: 2, InstructorID: 11, InstructorName: "Grace Hopper"},
	}
	b.modules = []backend.Module{
		{ID: 2, Title: "Concurrency", Order: 2, CourseID: 1, CourseName: "Go Fundamentals"},
		{ID: 1, Title: "Getting started", Order: 1, CourseID: 1, CourseName: "Go Fundamentals"},
		{ID: 3, Title: "Routing", Order: 1, CourseID: 2, CourseName: "Web Services in Go"},
	}
	b.lessons = []backend.Lesson{
		{ID: 2, Title: "Variables and types", VideoURL: "https://videos.example.com/2", Duration: 12, Order: 2, ModuleID: 1},
		{ID: 1, Title: "Installing Go", VideoURL: "https://videos.example.com/1", Duration: 8, Order: 1, ModuleID: 1},
		{ID: 3, Title: "Goroutines", VideoURL: "https://videos.example.com/3", Duration: 15, Order: 1, ModuleID: 2},
		{ID: 4, Title: "ServeMux patterns", VideoURL: "https://videos.example.com/4", Duration: 10, Order: 1, ModuleID: 3},
	}
}

func (b *Backend) listCategories(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.categories)
}

func (b *Backend) listCourses(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.courses)
}

func (b *Backend) listModules(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.modules)
}

func (b *Backend) listLessons(w http.ResponseWriter, _ *http.Request, _ *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.lessons)
}

// course looks up a seeded course. Callers hold b.mu.
func (b *Backend) course(id int) (backend.Course, bool) {
	for _, c := range b.courses {
		if c.ID == id {
			return c, true
		}
	}
	return backend.Course{}, false
}

func (b *Backend) courseDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.course(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	details := backend.CourseDetails{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Price:          c.Price,
		CategoryID:     c.CategoryID,
		InstructorName: c.InstructorName,
		Outcomes:       []string{"Build real projects with " + c.Title},
		Prerequisites:  []string{},
	}
	for _, cat := range b.categories {
		if cat.ID == c.CategoryID {
			details.CategoryName = cat.Name
		}
	}
	for _, cm := range backend.CourseCurriculum(b.modules, b.lessons, c.ID) {
		om := backend.OutlineModule{ID: cm.ID, CourseID: cm.CourseID, Title: cm.Title, Order: cm.Order}
		for _, l := range cm.Lessons {
			om.Lessons = append(om.Lessons, backend.OutlineLesson{
				ID:       l.ID,
				ModuleID: l.ModuleID,
				Title:    l.Title,
				Order:    l.Order,
				Videos:   []backend.Video{{ID: l.ID, LessonID: l.ID, Title: l.Title}},
			})
		}
		details.Modules = append(details.Modules, om)
	}
	writeJSON(w, http.StatusOK, details)
}

func (b *Backend) listEnrollments(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	enrollments := make([]backend.Enrollment, 0, len(b.enrollments[acc.user.ID]))
	for _, e := range b.enrollments[acc.user.ID] {
		if c, ok := b.course(e.Course.ID); ok {
			e.Course.Course = &c
		}
		enrollments = append(enrollments, e)
	}
	writeJSON(w, http.StatusOK, enrollments)
}

func (b *Backend) createEnrollment(w http.ResponseWriter, r *http.Request, acc *account) {
	var body struct {
		Course any `json:"course"`
	}
	if !decodeBody(r, &body) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	values := utils.ToStringSlice(body.Course)
	courseID := 0
	if len(values) == 1 {
		courseID, _ = strconv.Atoi(values[0])
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.course(courseID); !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"course": {`Invalid pk "` + strconv.Itoa(courseID) + `" - object does not exist.`}})
		return
	}
	for _, e := range b.enrollments[acc.user.ID] {
		if e.Course.ID == courseID {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"The fields user, course must make a unique set."}})
			return
		}
	}

	enrollment := backend.Enrollment{
		ID:         b.nextEnrollID,
		Course:     backend.CourseRef{ID: courseID},
		UserID:     acc.user.ID,
		EnrolledAt: b.nowTime().UTC().Format("2006-01-02T15:04:05Z"),
	}
	b.nextEnrollID++
	b.enrollments[acc.user.ID] = append(b.enrollments[acc.user.ID], enrollment)
	writeJSON(w, http.StatusCreated, enrollment)
}
