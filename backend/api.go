// Package backend holds the typed calls of the course backend's REST API.
package backend

import (
	"context"
	"net/http"

	"github.com/jrsteele09/academy-storefront/apiclient"
	"github.com/jrsteele09/academy-storefront/internal/utils"
)

// API wraps an apiclient.Client with one method per endpoint.
//
// The account methods that take an access token send it explicitly and never trigger
// a refresh; the session store uses that before a login has been committed. An empty
// token authorizes the call through the bound session instead.
type API struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *API {
	return &API{client: client}
}

// WithSession returns an API whose requests are authorized by s.
func (a *API) WithSession(s apiclient.Session) *API {
	return &API{client: a.client.WithSession(s)}
}

func (a *API) Register(ctx context.Context, reg Registration) (*User, error) {
	if reg.Role == "" {
		reg.Role = DefaultRole
	}
	var user User
	err := a.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: PathRegister, JSON: reg, NoAuth: true}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	err := a.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		JSON:   Credentials{Email: email, Password: password},
		NoAuth: true,
	}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Profile fetches the current user. An empty accessToken uses the bound session.
func (a *API) Profile(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := a.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: PathProfile, Bearer: accessToken}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return a.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   PathLogout,
		JSON:   map[string]string{"refresh": refreshToken},
		Bearer: accessToken,
		NoAuth: accessToken == "",
	}, nil)
}

func (a *API) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	err := a.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   PathTokenRefresh,
		JSON:   map[string]string{"refresh": refreshToken},
		NoAuth: true,
	}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// UpdateProfile sends the non-nil fields of update and decodes the response over a
// copy of base, so fields the backend omits keep their current values. An empty
// accessToken uses the bound session.
func (a *API) UpdateProfile(ctx context.Context, accessToken string, base *User, update ProfileUpdate) (*User, error) {
	req := apiclient.Request{Method: http.MethodPut, Path: PathUpdateProfile, Bearer: accessToken}
	if update.Picture != nil {
		req.Form = profileForm(update)
	} else {
		req.JSON = update
	}

	user := base.Clone()
	if user == nil {
		user = &User{}
	}
	if err := a.client.Do(ctx, req, user); err != nil {
		return nil, err
	}
	return user, nil
}

func profileForm(update ProfileUpdate) *apiclient.MultipartForm {
	form := &apiclient.MultipartForm{Fields: map[string]string{}}
	for name, value := range map[string]*string{
		"first_name": update.FirstName,
		"last_name":  update.LastName,
		"phone":      update.Phone,
		"bio":        update.Bio,
	} {
		if value != nil {
			form.Fields[name] = utils.Value(value)
		}
	}
	form.Files = append(form.Files, apiclient.FormFile{
		Field:    "profile_picture",
		Filename: update.Picture.Filename,
		Content:  update.Picture.Content,
	})
	return form
}

func (a *API) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	return a.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   PathChangePassword,
		JSON:   PasswordChange{OldPassword: oldPassword, NewPassword: newPassword},
		Bearer: accessToken,
	}, nil)
}

func (a *API) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := a.client.Get(ctx, PathCategories, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (a *API) Courses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := a.client.Get(ctx, PathCourses, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (a *API) CourseDetails(ctx context.Context, courseID int) (*CourseDetails, error) {
	var details CourseDetails
	if err := a.client.Get(ctx, CourseDetailsPath(courseID), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (a *API) Enrollments(ctx context.Context) ([]Enrollment, error) {
	var enrollments []Enrollment
	if err := a.client.Get(ctx, PathEnrollments, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (a *API) Enroll(ctx context.Context, courseID int) (*Enrollment, error) {
	var enrollment Enrollment
	if err := a.client.Post(ctx, PathEnrollments, map[string]int{"course": courseID}, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (a *API) Modules(ctx context.Context) ([]Module, error) {
	var modules []Module
	if err := a.client.Get(ctx, PathModules, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (a *API) Lessons(ctx context.Context) ([]Lesson, error) {
	var lessons []Lesson
	if err := a.client.Get(ctx, PathLessons, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}
