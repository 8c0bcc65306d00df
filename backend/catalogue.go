package backend

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CategoryCourses is a category with the courses filed under it.
type CategoryCourses struct {
	Category
	Courses []Course
}

// GroupByCategory files courses under their categories, keeping the category order.
func GroupByCategory(categories []Category, courses []Course) []CategoryCourses {
	grouped := make([]CategoryCourses, 0, len(categories))
	for _, cat := range categories {
		grouped = append(grouped, CategoryCourses{Category: cat, Courses: FilterCourses(courses, cat.ID, "")})
	}
	return grouped
}

// FilterCourses keeps the courses of categoryID (0 matches all) whose title or
// description contains search, ignoring case.
func FilterCourses(courses []Course, categoryID int, search string) []Course {
	search = strings.ToLower(strings.TrimSpace(search))
	filtered := make([]Course, 0, len(courses))
	for _, c := range courses {
		if categoryID != 0 && c.CategoryID != categoryID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// CurriculumModule is one module of a course with its ordered lessons.
type CurriculumModule struct {
	Module
	Lessons []Lesson
}

// TotalDuration sums the lesson durations in minutes.
func (m CurriculumModule) TotalDuration() int {
	total := 0
	for _, l := range m.Lessons {
		total += l.Duration
	}
	return total
}

// CourseCurriculum selects the modules of courseID ordered by Order and attaches each
// module's lessons, also ordered by Order.
func CourseCurriculum(modules []Module, lessons []Lesson, courseID int) []CurriculumModule {
	byModule := make(map[int][]Lesson)
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}

	curriculum := make([]CurriculumModule, 0)
	for _, m := range modules {
		if m.CourseID != courseID {
			continue
		}
		ls := byModule[m.ID]
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Order < ls[j].Order })
		curriculum = append(curriculum, CurriculumModule{Module: m, Lessons: ls})
	}
	sort.SliceStable(curriculum, func(i, j int) bool { return curriculum[i].Order < curriculum[j].Order })
	return curriculum
}

// Catalogue fetches categories and courses concurrently and groups them.
func (a *API) Catalogue(ctx context.Context) ([]CategoryCourses, error) {
	var (
		categories []Category
		courses    []Course
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		categories, err = a.Categories(ctx)
		return err
	})
	g.Go(func() (err error) {
		courses, err = a.Courses(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return GroupByCategory(categories, courses), nil
}

// Curriculum fetches modules and lessons concurrently and assembles courseID's outline.
func (a *API) Curriculum(ctx context.Context, courseID int) ([]CurriculumModule, error) {
	var (
		modules []Module
		lessons []Lesson
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		modules, err = a.Modules(ctx)
		return err
	})
	g.Go(func() (err error) {
		lessons, err = a.Lessons(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return CourseCurriculum(modules, lessons, courseID), nil
}

// IsEnrolled reports whether enrollments include courseID.
func IsEnrolled(enrollments []Enrollment, courseID int) bool {
	for _, e := range enrollments {
		if e.Course.ID == courseID {
			return true
		}
	}
	return false
}
