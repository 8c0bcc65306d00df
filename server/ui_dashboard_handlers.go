package server

import (
	"io"
	"net/http"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/guard"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/jrsteele09/academy-storefront/internal/utils"
	"github.com/rs/zerolog/log"
)

const maxPictureBytes = 5 << 20

// DashboardPageData is the dashboard model
type DashboardPageData struct {
	Enrollments []backend.Enrollment
}

// SettingsPageData is the account settings model
type SettingsPageData struct {
	Profile        profileForm
	ProfileFields  FieldErrors
	PasswordFields FieldErrors
}

// DashboardHandler shows the profile header and the enrolled courses
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("dashboard.html")
	if err != nil {
		panic("Failed to parse dashboard template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		enrollments, err := s.apiFor(r).Enrollments(r.Context())
		if err != nil {
			s.backendFailure(w, r, err, r.URL.RequestURI())
			return
		}
		s.render(w, r, tmpl, http.StatusOK, s.page(r, DashboardPageData{Enrollments: enrollments}))
	}
}

// SettingsGetHandler renders the profile and password forms
func (s *Server) SettingsGetHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("settings.html")
	if err != nil {
		panic("Failed to parse settings template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, tmpl, http.StatusOK, s.page(r, SettingsPageData{Profile: profileFormFor(s.sessionState(r).User)}))
	}
}

// SettingsProfilePostHandler saves the profile form, including an optional picture
func (s *Server) SettingsProfilePostHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("settings.html")
	if err != nil {
		panic("Failed to parse settings template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxPictureBytes+(1<<20))
		if err := r.ParseMultipartForm(maxPictureBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var form profileForm
		if err := decodeForm(r, &form); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		renderError := func(status int, msg string, fields FieldErrors) {
			page := s.page(r, SettingsPageData{Profile: form, ProfileFields: fields})
			page.Error = msg
			s.render(w, r, tmpl, status, page)
		}

		if err := s.validate.Struct(form); err != nil {
			renderError(http.StatusUnprocessableEntity, "Please correct the highlighted fields.", formErrors(err))
			return
		}

		update := backend.ProfileUpdate{
			FirstName: utils.Ptr(form.FirstName),
			LastName:  utils.Ptr(form.LastName),
			Phone:     utils.NonEmptyPtr(form.Phone),
			Bio:       utils.NonEmptyPtr(form.Bio),
		}
		picture, err := uploadedPicture(r)
		if err != nil {
			renderError(http.StatusUnprocessableEntity, "The picture could not be read.", FieldErrors{"profile_picture": err.Error()})
			return
		}
		update.Picture = picture

		_, err = storeFromRequest(r).UpdateProfile(r.Context(), update)
		switch {
		case err == nil:
			redirectSuccess(w, r, PathSettings+"?flash=Profile+updated")
		case sessionLost(err):
			redirectSuccess(w, r, guard.LoginLocation(PathSettings))
		case errors.Is(err, errors.ErrValidation):
			renderError(http.StatusUnprocessableEntity, userMessage(err), backendFieldErrors(err))
		default:
			log.Err(err).Msg("Profile update failed")
			renderError(http.StatusBadGateway, userMessage(err), nil)
		}
	}
}

// SettingsPasswordPostHandler changes the account password
func (s *Server) SettingsPasswordPostHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("settings.html")
	if err != nil {
		panic("Failed to parse settings template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var form passwordForm
		if err := decodeForm(r, &form); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		renderError := func(status int, msg string, fields FieldErrors) {
			page := s.page(r, SettingsPageData{
				Profile:        profileFormFor(s.sessionState(r).User),
				PasswordFields: fields,
			})
			page.Error = msg
			s.render(w, r, tmpl, status, page)
		}

		if err := s.validate.Struct(form); err != nil {
			renderError(http.StatusUnprocessableEntity, "Please correct the highlighted fields.", formErrors(err))
			return
		}

		err := storeFromRequest(r).ChangePassword(r.Context(), form.OldPassword, form.NewPassword)
		switch {
		case err == nil:
			redirectSuccess(w, r, PathSettings+"?flash=Password+changed")
		case sessionLost(err):
			redirectSuccess(w, r, guard.LoginLocation(PathSettings))
		case errors.Is(err, errors.ErrValidation):
			renderError(http.StatusUnprocessableEntity, userMessage(err), backendFieldErrors(err))
		default:
			log.Err(err).Msg("Password change failed")
			renderError(http.StatusBadGateway, userMessage(err), nil)
		}
	}
}

func profileFormFor(u *backend.User) profileForm {
	if u == nil {
		return profileForm{}
	}
	return profileForm{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     utils.Value(u.Phone),
		Bio:       utils.Value(u.Bio),
	}
}

// uploadedPicture returns nil when no file was chosen.
func uploadedPicture(r *http.Request) (*backend.Upload, error) {
	file, header, err := r.FormFile("profile_picture")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxPictureBytes+1))
	if err != nil {
		return nil, err
	}
	if len(content) > maxPictureBytes {
		return nil, errors.New("pictures are limited to 5 MB")
	}
	if len(content) == 0 {
		return nil, nil
	}
	return &backend.Upload{Filename: header.Filename, Content: content}, nil
}
