package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultRole is the role every storefront signup registers with.
const DefaultRole = "student"

// User is the account record returned by the profile endpoint.
type User struct {
	ID             int     `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	Role           string  `json:"role"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	Bio            *string `json:"bio,omitempty"`
}

// FullName joins the first and last name.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Phone = cloneString(u.Phone)
	c.ProfilePicture = cloneString(u.ProfilePicture)
	c.Bio = cloneString(u.Bio)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// TokenPair is the login and refresh response. Refresh is empty when the backend does
// not rotate refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Filename string
	Content  []byte
}

// ProfileUpdate changes the non-nil fields of the current user. A Picture switches the
// request to multipart.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Picture   *Upload `json:"-"`
}

// Empty reports whether the update would change nothing.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.Bio == nil && p.Picture == nil
}

type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type Category struct {
	ID        int    `json:"category_id"`
	Name      string `json:"category_name"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Course struct {
	ID             int     `json:"course_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Price          string  `json:"price"`
	Thumbnail      *string `json:"thumbnail,omitempty"`
	CategoryID     int     `json:"category"`
	InstructorID   int     `json:"instructor_id,omitempty"`
	InstructorName string  `json:"instructor_name,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
}

// CourseDetails is the public course page payload with its full outline.
type CourseDetails struct {
	ID             int             `json:"course_id"`
	Title          string          `json:"course_title"`
	Description    string          `json:"description"`
	Price          string          `json:"price"`
	CategoryID     int             `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	InstructorName string          `json:"instructor_name"`
	Modules        []OutlineModule `json:"modules"`
	Outcomes       []string        `json:"outcomes"`
	Prerequisites  []string        `json:"prerequisites"`
}

// LessonCount counts the lessons across all modules.
func (d *CourseDetails) LessonCount() int {
	n := 0
	for _, m := range d.Modules {
		n += len(m.Lessons)
	}
	return n
}

type OutlineModule struct {
	ID       int             `json:"module_id"`
	CourseID int             `json:"course_id"`
	Title    string          `json:"module_title"`
	Order    int             `json:"order"`
	Lessons  []OutlineLesson `json:"lessons"`
}

type OutlineLesson struct {
	ID        int        `json:"lesson_id"`
	ModuleID  int        `json:"module_id"`
	Title     string     `json:"lesson_title"`
	Order     int        `json:"order"`
	Videos    []Video    `json:"videos"`
	Resources []Resource `json:"resources"`
}

type Video struct {
	ID       int    `json:"video_id"`
	LessonID int    `json:"lesson_id"`
	Title    string `json:"video_title"`
}

type Resource struct {
	ID       int    `json:"resource_id"`
	LessonID int    `json:"lesson_id"`
	Title    string `json:"resource_title"`
}

// Enrollment links the current user to a course. The backend answers with either the
// course id or the embedded course depending on the endpoint version.
type Enrollment struct {
	ID         int       `json:"enrollment_id"`
	Course     CourseRef `json:"course"`
	UserID     int       `json:"user,omitempty"`
	EnrolledAt string    `json:"enrolled_at"`
}

// CourseRef is a course reference that may carry the full course.
type CourseRef struct {
	ID     int
	Course *Course
}

func (r *CourseRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = CourseRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var c Course
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*r = CourseRef{ID: c.ID, Course: &c}
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("course reference must be an id or an object: %w", err)
	}
	*r = CourseRef{ID: id}
	return nil
}

func (r CourseRef) MarshalJSON() ([]byte, error) {
	if r.Course != nil {
		return json.Marshal(r.Course)
	}
	return json.Marshal(r.ID)
}

type Module struct {
	ID         int    `json:"module_id"`
	Title      string `json:"title"`
	Order      int    `json:"order"`
	CourseID   int    `json:"course_id"`
	CourseName string `json:"course_name,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

type Lesson struct {
	ID        int    `json:"lesson_id"`
	Title     string `json:"title"`
	VideoURL  string `json:"video_url"`
	Duration  int    `json:"duration"`
	Order     int    `json:"order"`
	ModuleID  int    `json:"module"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
