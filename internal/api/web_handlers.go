package api

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
	"github.com/zarko379/iMangarr-ng/internal/metadata/anilist"
	"github.com/zarko379/iMangarr-ng/internal/service"
	"github.com/zarko379/iMangarr-ng/internal/sse"
	"github.com/zarko379/iMangarr-ng/internal/validation"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// recentActivity is how many past events the activity page starts with.
const recentActivity = 25

var templateFuncs = template.FuncMap{
	"statusClass": statusClass,
	"coverPath":   coverPath,
	"plainText":   anilist.PlainText,
}

// pages holds one template set per page, each combining the layout with the
// page body. Fragments are a separate set for htmx swaps.
var (
	pages     = parsePages("setup", "dashboard", "calendar", "activity", "wanted", "settings")
	fragments = template.Must(template.New("fragments").Funcs(templateFuncs).ParseFS(templates, "templates/fragments.html"))
)

func parsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.New(name).Funcs(templateFuncs).ParseFS(templates,
			"templates/layout.html", "templates/fragments.html", "templates/"+name+".html"))
	}
	return out
}

// pageData is passed to every page template.
type pageData struct {
	ServerName string
	Page       string
	Settings   *domain.Settings
	Entries    []entryView
	Filter     string
	MinQuery   int
	Events     []sse.Event
	Errors     map[string]string
	Message    string
	RootPath   string
}

// entryView is a library entry with the cover URL the browser should load.
type entryView struct {
	domain.Entry
	CoverURL string
	BlurHash string
}

// addView feeds the add-manga fragments.
type addView struct {
	Title   string
	Message string
}

func (s *Server) setupWebRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/setup", s.handleSetupPage)
	s.router.Post("/setup", s.handleSetupSubmit)
	s.router.Get("/calendar", s.handlePlaceholder("calendar"))
	s.router.Get("/wanted", s.handlePlaceholder("wanted"))
	s.router.Get("/activity", s.handleActivity)
	s.router.Get("/settings", s.handleSettingsPage)
	s.router.Get("/search-results", s.handleSearchResults)
	s.router.Post("/add-manga", s.handleAddManga)
	s.router.Get("/covers/{id}", s.handleServeCover)

	assets, _ := fs.Sub(static, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(assets)))
}

// handleIndex shows setup until settings exist, then the dashboard.
// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	settings, err := s.services.Settings.Get(r.Context())
	if domainerrors.Is(err, domainerrors.ErrNotConfigured) {
		s.renderPage(w, http.StatusOK, "setup", pageData{})
		return
	}
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		s.renderPage(w, http.StatusInternalServerError, "setup", pageData{Message: "Could not read the settings file."})
		return
	}

	s.renderDashboard(w, r, http.StatusOK, settings, r.URL.Query().Get("q"))
}

// GET /setup
func (s *Server) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	if settings, err := s.services.Settings.Get(r.Context()); err == nil {
		data.RootPath = settings.RootPath
	}
	s.renderPage(w, http.StatusOK, "setup", data)
}

// handleSetupSubmit saves the settings and shows the dashboard.
// POST /setup
func (s *Server) handleSetupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, "setup", pageData{Message: "The form could not be read."})
		return
	}

	rootPath := r.PostForm.Get("root_path")
	settings, err := s.services.Settings.Setup(r.Context(), service.SetupRequest{RootPath: rootPath})
	switch {
	case domainerrors.Is(err, domainerrors.ErrValidation):
		s.renderPage(w, http.StatusBadRequest, "setup", pageData{
			RootPath: rootPath,
			Errors:   validation.FieldErrors(err),
			Message:  "Please choose a root folder.",
		})
		return
	case err != nil:
		s.logger.Error("failed to save settings", "error", err)
		s.renderPage(w, http.StatusInternalServerError, "setup", pageData{
			RootPath: rootPath,
			Message:  "The settings could not be saved.",
		})
		return
	}

	s.renderDashboard(w, r, http.StatusOK, settings, "")
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, settings *domain.Settings, filter string) {
	entries, err := s.services.Library.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to load library", "error", err)
		s.renderPage(w, http.StatusInternalServerError, "dashboard", pageData{
			Settings: settings,
			Filter:   filter,
			MinQuery: s.services.Library.MinQueryLength(),
			Message:  "The library could not be read.",
		})
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, s.entryView(e))
	}

	s.renderPage(w, status, "dashboard", pageData{
		Settings: settings,
		Entries:  views,
		Filter:   strings.TrimSpace(filter),
		MinQuery: s.services.Library.MinQueryLength(),
	})
}

func (s *Server) entryView(e domain.Entry) entryView {
	view := entryView{Entry: e, CoverURL: e.Cover}
	if s.covers != nil && s.covers.Exists(e.ID.String()) {
		view.CoverURL = coverPath(e.ID)
		view.BlurHash = s.covers.BlurHash(e.ID.String())
	}
	return view
}

// handlePlaceholder renders a page with no data beyond the layout.
func (s *Server) handlePlaceholder(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.renderPage(w, http.StatusOK, page, pageData{})
	}
}

// GET /activity
func (s *Server) handleActivity(w http.ResponseWriter, _ *http.Request) {
	data := pageData{}
	if s.services.Events != nil {
		data.Events = s.services.Events.Recent(recentActivity)
	}
	s.renderPage(w, http.StatusOK, "activity", data)
}

// GET /settings
func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	settings, err := s.services.Settings.Get(r.Context())
	switch {
	case err == nil:
		data.Settings = settings
	case !domainerrors.Is(err, domainerrors.ErrNotConfigured):
		s.logger.Error("failed to load settings", "error", err)
		data.Message = "Could not read the settings file."
	}
	s.renderPage(w, http.StatusOK, "settings", data)
}

// handleSearchResults returns the htmx fragment for the search box.
// GET /search-results?q=
func (s *Server) handleSearchResults(w http.ResponseWriter, r *http.Request) {
	if !s.allowSearch(r) {
		s.renderFragment(w, http.StatusTooManyRequests, "rate_limited", nil)
		return
	}

	outcome := s.services.Library.Search(r.Context(), r.URL.Query().Get("q"))
	switch outcome.Kind {
	case service.SearchTooShort:
		s.renderFragment(w, http.StatusOK, "search_prompt", outcome)
	case service.SearchFailed:
		s.renderFragment(w, http.StatusOK, "search_error", outcome)
	case service.SearchEmpty:
		s.renderFragment(w, http.StatusOK, "search_empty", outcome)
	default:
		s.renderFragment(w, http.StatusOK, "search_results", outcome)
	}
}

// addMangaForm is the form posted by a result card.
type addMangaForm struct {
	MangaID string `form:"manga_id" validate:"required,manga_id"`
	Title   string `form:"title" validate:"max=512"`
	Cover   string `form:"cover" validate:"omitempty,max=2048,cover_url"`
}

// handleAddManga adds a result to the library and returns the outcome fragment.
// POST /add-manga
func (s *Server) handleAddManga(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderFragment(w, http.StatusOK, "add_error", addView{Message: "The form could not be read."})
		return
	}

	form := addMangaForm{
		MangaID: r.PostForm.Get("manga_id"),
		Title:   r.PostForm.Get("title"),
		Cover:   r.PostForm.Get("cover"),
	}
	if err := s.validator.Validate(form); err != nil {
		s.renderFragment(w, http.StatusOK, "add_error", addView{Title: form.Title, Message: "That manga could not be added: " + describeFields(err)})
		return
	}
	id, _ := domain.ParseMangaID(form.MangaID)

	outcome := s.services.Library.Add(r.Context(), service.AddRequest{ID: id, Title: form.Title, Cover: form.Cover})
	switch outcome.Kind {
	case service.AddAdded:
		s.renderFragment(w, http.StatusOK, "add_success", addView{Title: outcome.Entry.Title})
	case service.AddAlreadyExists:
		s.renderFragment(w, http.StatusOK, "add_exists", addView{Title: form.Title})
	default:
		s.renderFragment(w, http.StatusOK, "add_error", addView{Title: form.Title, Message: "The library could not be saved. Try again."})
	}
}

func describeFields(err error) string {
	fields := validation.FieldErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fields))
	for _, name := range []string{"manga_id", "title", "cover"} {
		if msg, ok := fields[name]; ok {
			parts = append(parts, name+" "+msg)
		}
	}
	return strings.Join(parts, ", ")
}

// renderPage buffers the page so a template error never sends half a document.
func (s *Server) renderPage(w http.ResponseWriter, status int, page string, data pageData) {
	tmpl, ok := pages[page]
	if !ok {
		s.logger.Error("unknown page", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data.Page = page
	data.ServerName = s.name
	if data.MinQuery == 0 && s.services.Library != nil {
		data.MinQuery = s.services.Library.MinQueryLength()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func (s *Server) renderFragment(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render fragment", "fragment", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// statusClass picks the badge colours for a publication status.
func statusClass(status domain.MediaStatus) string {
	switch status {
	case domain.MediaStatusReleasing:
		return "badge-releasing"
	case domain.MediaStatusFinished:
		return "badge-finished"
	case domain.MediaStatusNotYetReleased:
		return "badge-upcoming"
	case domain.MediaStatusCancelled:
		return "badge-cancelled"
	case domain.MediaStatusHiatus:
		return "badge-hiatus"
	default:
		return "badge-unknown"
	}
}
