// Package backendfake serves the course backend's REST contract from memory for tests.
package backendfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/academy-storefront/backend"
	"golang.org/x/crypto/bcrypt"
)

// DemoEmail and DemoPassword identify the seeded account.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
)

type account struct {
	user         backend.User
	passwordHash []byte
}

// Backend is an in-memory course backend behind an httptest.Server.
type Backend struct {
	server *httptest.Server
	secret []byte

	mu            sync.Mutex
	nowTime       func() time.Time
	accessTTL     time.Duration
	rotateRefresh bool
	nextUserID    int
	accounts      map[string]*account // by email
	refreshTokens map[string]int      // refresh token to user id
	issued        []string            // access token ids not yet revoked
	revoked       map[string]bool     // access token ids
	failures      map[string][]int    // path to queued status codes
	latency       map[string]time.Duration
	calls         map[string]int
	enrollments   map[int][]backend.Enrollment
	nextEnrollID  int

	categories []backend.Category
	courses    []backend.Course
	modules    []backend.Module
	lessons    []backend.Lesson
}

// Option configures a Backend.
type Option func(*Backend)

// WithNowTime sets the clock used to issue and validate access tokens.
func WithNowTime(now func() time.Time) Option {
	return func(b *Backend) {
		b.nowTime = now
	}
}

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.accessTTL = ttl
	}
}

// WithRefreshRotation makes the refresh endpoint issue a new refresh token each time.
func WithRefreshRotation() Option {
	return func(b *Backend) {
		b.rotateRefresh = true
	}
}

// New starts a backend seeded with the demo account and a small catalogue.
func New(options ...Option) *Backend {
	b := &Backend{
		secret:        []byte(uuid.NewString()),
		nowTime:       time.Now,
		accessTTL:     5 * time.Minute,
		nextUserID:    1,
		accounts:      make(map[string]*account),
		refreshTokens: make(map[string]int),
		revoked:       make(map[string]bool),
		failures:      make(map[string][]int),
		latency:       make(map[string]time.Duration),
		calls:         make(map[string]int),
		enrollments:   make(map[int][]backend.Enrollment),
		nextEnrollID:  1,
	}
	for _, opt := range options {
		opt(b)
	}
	b.seed()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+backend.PathRegister, b.register)
	mux.HandleFunc("POST "+backend.PathLogin, b.login)
	mux.HandleFunc("GET "+backend.PathProfile, b.authed(b.profile))
	mux.HandleFunc("POST "+backend.PathLogout, b.authed(b.logout))
	mux.HandleFunc("POST "+backend.PathTokenRefresh, b.refresh)
	mux.HandleFunc("PUT "+backend.PathUpdateProfile, b.authed(b.updateProfile))
	mux.HandleFunc("POST "+backend.PathChangePassword, b.authed(b.changePassword))
	mux.HandleFunc("GET "+backend.PathCategories, b.listCategories)
	mux.HandleFunc("GET "+backend.PathCourses, b.listCourses)
	mux.HandleFunc("GET "+backend.PathCourseDetails+"{id}", b.courseDetails)
	mux.HandleFunc("GET "+backend.PathEnrollments, b.authed(b.listEnrollments))
	mux.HandleFunc("POST "+backend.PathEnrollments, b.authed(b.createEnrollment))
	mux.HandleFunc("GET "+backend.PathModules, b.authed(b.listModules))
	mux.HandleFunc("GET "+backend.PathLessons, b.authed(b.listLessons))

	b.server = httptest.NewServer(b.instrument(mux))
	return b
}

// URL is the base URL of the backend.
func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) Close() {
	b.server.Close()
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// FailNext makes the next request to path answer status without being handled.
// Calls queue up.
func (b *Backend) FailNext(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = append(b.failures[path], status)
}

// SetLatency delays every response from path by d.
func (b *Backend) SetLatency(path string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latency[path] = d
}

// ExpireAccessTokens revokes every access token issued so far. Refresh tokens stay valid.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.issued {
		b.revoked[id] = true
	}
	b.issued = nil
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshTokens = make(map[string]int)
}

// User returns the stored record for email.
func (b *Backend) User(email string) (backend.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[strings.ToLower(email)]
	if !ok {
		return backend.User{}, false
	}
	return acc.user, true
}

// instrument counts calls and applies queued failures and latency.
func (b *Backend) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		delay := b.latency[r.URL.Path]
		status := 0
		if queued := b.failures[r.URL.Path]; len(queued) > 0 {
			status = queued[0]
			b.failures[r.URL.Path] = queued[1:]
		}
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}

// issue creates an access token for userID and, when refresh is empty, a refresh token.
// Callers hold b.mu.
func (b *Backend) issue(userID int, refresh string) (backend.TokenPair, error) {
	now := b.nowTime()
	claims := jwt.RegisteredClaims{
		Subject:   userSubject(userID),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.accessTTL)),
	}
	b.issued = append(b.issued, claims.ID)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return backend.TokenPair{}, err
	}
	if refresh == "" {
		refresh = uuid.NewString()
		b.refreshTokens[refresh] = userID
	}
	return backend.TokenPair{Access: access, Refresh: refresh}, nil
}
