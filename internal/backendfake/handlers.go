package backendfake

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/academy-storefront/backend"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type accountHandler func(w http.ResponseWriter, r *http.Request, acc *account)

func userSubject(id int) string {
	return strconv.Itoa(id)
}

// authed rejects requests without a valid, unrevoked bearer token.
func (b *Backend) authed(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		b.mu.Lock()
		now := b.nowTime
		b.mu.Unlock()

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return b.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}

		b.mu.Lock()
		revoked := b.revoked[claims.ID]
		acc := b.accountByID(claims.Subject)
		b.mu.Unlock()
		if revoked || acc == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next(w, r, acc)
	}
}

// accountByID looks up an account by its token subject. Callers hold b.mu.
func (b *Backend) accountByID(subject string) *account {
	for _, acc := range b.accounts {
		if userSubject(acc.user.ID) == subject {
			return acc
		}
	}
	return nil
}

func decodeBody(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var reg backend.Registration
	if !decodeBody(r, &reg) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	fields := map[string][]string{}
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if strings.TrimSpace(reg.FirstName) == "" {
		fields["first_name"] = []string{"This field may not be blank."}
	}
	if !strings.Contains(email, "@") {
		fields["email"] = []string{"Enter a valid email address."}
	}
	if len(reg.Password) < minPasswordLength {
		fields["password"] = []string{"This password is too short. It must contain at least 8 characters."}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[email]; exists && email != "" {
		fields["email"] = append(fields["email"], "user with this email already exists.")
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	acc := b.addAccount(reg, email)
	writeJSON(w, http.StatusCreated, acc.user)
}

// addAccount stores a new account. Callers hold b.mu.
func (b *Backend) addAccount(reg backend.Registration, email string) *account {
	role := reg.Role
	if role == "" {
		role = backend.DefaultRole
	}
	user := backend.User{
		ID:        b.nextUserID,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     email,
		Role:      role,
	}
	if reg.Phone != "" {
		phone := reg.Phone
		user.Phone = &phone
	}
	b.nextUserID++
	acc := &account{user: user, passwordHash: hashPassword(reg.Password)}
	b.accounts[email] = acc
	return acc
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if !decodeBody(r, &creds) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"detail": {"Email and password are required."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(creds.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	pair, err := b.issue(acc.user.ID, "")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (b *Backend) profile(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.mu.Lock()
	user := acc.user
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request, _ *account) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if !decodeBody(r, &body) || body.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	b.mu.Lock()
	delete(b.refreshTokens, body.Refresh)
	b.mu.Unlock()
	w.WriteHeader(http.StatusResetContent)
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if !decodeBody(r, &body) || body.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	userID, ok := b.refreshTokens[body.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}

	keep := body.Refresh
	if b.rotateRefresh {
		delete(b.refreshTokens, body.Refresh)
		keep = ""
	}
	pair, err := b.issue(userID, keep)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !b.rotateRefresh {
		pair.Refresh = ""
	}
	writeJSON(w, http.StatusOK, pair)
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request, acc *account) {
	var update struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Phone     *string `json:"phone"`
		Bio       *string `json:"bio"`
	}
	picture := ""

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed multipart body.")
			return
		}
		formValue := func(name string) *string {
			if values, ok := r.MultipartForm.Value[name]; ok && len(values) > 0 {
				return &values[0]
			}
			return nil
		}
		update.FirstName = formValue("first_name")
		update.LastName = formValue("last_name")
		update.Phone = formValue("phone")
		update.Bio = formValue("bio")
		if files := r.MultipartForm.File["profile_picture"]; len(files) > 0 {
			picture = "/media/profile_pictures/" + files[0].Filename
		}
	} else if !decodeBody(r, &update) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	if update.FirstName != nil && strings.TrimSpace(*update.FirstName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"first_name": {"This field may not be blank."}})
		return
	}
	if update.Phone != nil && strings.TrimSpace(*update.Phone) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"phone": {"Enter a valid phone number."}})
		return
	}

	b.mu.Lock()
	if update.FirstName != nil {
		acc.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		acc.user.LastName = *update.LastName
	}
	if update.Phone != nil {
		acc.user.Phone = update.Phone
	}
	if update.Bio != nil {
		acc.user.Bio = update.Bio
	}
	if picture != "" {
		acc.user.ProfilePicture = &picture
	}
	user := acc.user
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) changePassword(w http.ResponseWriter, r *http.Request, acc *account) {
	var body backend.PasswordChange
	if !decodeBody(r, &body) {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(body.OldPassword)) != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"old_password": {"Wrong password."}})
		return
	}
	if len(body.NewPassword) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"new_password": {"This password is too short. It must contain at least 8 characters."}})
		return
	}
	acc.passwordHash = hashPassword(body.NewPassword)
	writeDetail(w, http.StatusOK, "Password updated successfully")
}
