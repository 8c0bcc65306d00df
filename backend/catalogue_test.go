package backend_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/stretchr/testify/require"
)

func TestFilterCourses(t *testing.T) {
	courses := []backend.Course{
		{ID: 1, Title: "Go Fundamentals", Description: "Types and interfaces", CategoryID: 1},
		{ID: 2, Title: "Web Services", Description: "HTTP in GO", CategoryID: 1},
		{ID: 3, Title: "Interface Design", Description: "Typography", CategoryID: 2},
	}

	tests := []struct {
		name       string
		categoryID int
		search     string
		want       []int
	}{
		{"all", 0, "", []int{1, 2, 3}},
		{"category", 1, "", []int{1, 2}},
		{"search title ignores case", 0, "interface", []int{1, 3}},
		{"search description", 1, "go", []int{1, 2}},
		{"category and search", 2, "interface", []int{3}},
		{"no match", 2, "http", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]int, 0)
			for _, c := range backend.FilterCourses(courses, tt.categoryID, tt.search) {
				got = append(got, c.ID)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCourseCurriculum(t *testing.T) {
	modules := []backend.Module{
		{ID: 3, Title: "Third", Order: 3, CourseID: 7},
		{ID: 1, Title: "First", Order: 1, CourseID: 7},
		{ID: 9, Title: "Other course", Order: 1, CourseID: 8},
	}
	lessons := []backend.Lesson{
		{ID: 11, Title: "b", Order: 2, ModuleID: 1},
		{ID: 10, Title: "a", Order: 1, ModuleID: 1},
		{ID: 12, Title: "other", Order: 1, ModuleID: 9},
	}

	curriculum := backend.CourseCurriculum(modules, lessons, 7)
	require.Len(t, curriculum, 2)
	require.Equal(t, "First", curriculum[0].Title)
	require.Equal(t, "Third", curriculum[1].Title)
	require.Len(t, curriculum[0].Lessons, 2)
	require.Equal(t, "a", curriculum[0].Lessons[0].Title)
	require.Empty(t, curriculum[1].Lessons)

	require.Empty(t, backend.CourseCurriculum(modules, lessons, 42))
}

func TestCourseRef_UnmarshalJSON(t *testing.T) {
	t.Run("id", func(t *testing.T) {
		var e backend.Enrollment
		require.NoError(t, json.Unmarshal([]byte(`{"enrollment_id":1,"course":5}`), &e))
		require.Equal(t, 5, e.Course.ID)
		require.Nil(t, e.Course.Course)
	})

	t.Run("embedded course", func(t *testing.T) {
		var e backend.Enrollment
		require.NoError(t, json.Unmarshal([]byte(`{"enrollment_id":1,"course":{"course_id":5,"title":"Go"}}`), &e))
		require.Equal(t, 5, e.Course.ID)
		require.Equal(t, "Go", e.Course.Course.Title)
	})

	t.Run("invalid", func(t *testing.T) {
		var e backend.Enrollment
		require.Error(t, json.Unmarshal([]byte(`{"course":"five"}`), &e))
	})
}
