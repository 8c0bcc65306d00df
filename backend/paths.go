package backend

import "strconv"

// Backend endpoints. The trailing slashes are significant.
const (
	PathRegister       = "/api/accounts/register/"
	PathLogin          = "/api/accounts/login/"
	PathProfile        = "/api/accounts/profile/"
	PathLogout         = "/api/accounts/logout/"
	PathTokenRefresh   = "/api/accounts/token/refresh/"
	PathUpdateProfile  = "/api/accounts/update/"
	PathChangePassword = "/api/accounts/change-password/"

	PathCategories    = "/api/categories/"
	PathCourses       = "/api/courses/"
	PathCourseDetails = "/api/course-details/"
	PathEnrollments   = "/api/enrollments/"
	PathModules       = "/api/modules/"
	PathLessons       = "/api/lessons/"
)

// CourseDetailsPath is the details endpoint for one course.
func CourseDetailsPath(courseID int) string {
	return PathCourseDetails + strconv.Itoa(courseID)
}
