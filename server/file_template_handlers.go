package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/utils"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"deref":        utils.Value[string],
	"initials":     initials,
	"minutes":      formatMinutes,
	"coursePath":   coursePath,
	"progressPath": courseProgressPath,
}

// ParseTemplate parses a page from the embedded filesystem together with the layout.
// Pages define a "content" block.
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// PageData is the model every page renders with. Content holds the page specific part.
type PageData struct {
	AppName       string
	Path          string
	User          *backend.User
	Authenticated bool
	Error         string
	Flash         string
	Content       any
}

func (s *Server) page(r *http.Request, content any) PageData {
	state := s.sessionState(r)
	return PageData{
		AppName:       s.config.GetAppName(),
		Path:          r.URL.Path,
		User:          state.User,
		Authenticated: state.IsAuthenticated,
		Error:         r.URL.Query().Get("error"),
		Flash:         r.URL.Query().Get("flash"),
		Content:       content,
	}
}

// render executes tmpl into a buffer so a template failure never sends half a page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data any) {
	if data == nil {
		data = s.page(r, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		log.Err(err).Str("path", r.URL.Path).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func initials(u *backend.User) string {
	if u == nil {
		return "?"
	}
	var b strings.Builder
	for _, part := range []string{u.FirstName, u.LastName} {
		if part != "" {
			b.WriteString(strings.ToUpper(part[:1]))
		}
	}
	if b.Len() == 0 && u.Email != "" {
		return strings.ToUpper(u.Email[:1])
	}
	return b.String()
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
