package web

import (
	"encoding/base64"
	"encoding/gob"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"reqclassify/internal/auth"
	"reqclassify/internal/chart"
	"reqclassify/internal/classifier"
	"reqclassify/internal/config"
	"reqclassify/internal/history"
	"reqclassify/internal/store"
	"reqclassify/internal/upload"
	"reqclassify/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const sessionName = "reqclass-session"

// Flash is a one-shot notice carried in the session; Category maps to
// a bootstrap alert class (success, info, warning, danger).
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// MailSender delivers a contact-form message.
type MailSender interface {
	Send(fromName, fromEmail, body string) error
}

type WebHandler struct {
	authService    *auth.AuthService
	historyService *history.HistoryService
	classifier     classifier.Classifier
	mailer         MailSender
	templates      *template.Template
	sessionStore   *sessions.CookieStore
	config         *config.Config
}

type FAQ struct {
	Question string
	Answer   string
}

var faqs = []FAQ{
	{Question: "What is this site about?", Answer: "It predicts requirement types."},
	{Question: "How accurate is the prediction?", Answer: "Accuracy depends on the model."},
}

type PageData struct {
	Page          string
	Username      string
	LoggedIn      bool
	Flashes       []Flash
	Prediction    string
	Functional    []string
	NonFunctional []string
	History       []models.HistoryEntry
	GraphURL      template.URL
	FAQs          []FAQ
}

func NewWebHandler(
	authService *auth.AuthService,
	historyService *history.HistoryService,
	clf classifier.Classifier,
	mailer MailSender,
	cfg *config.Config,
) (*WebHandler, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}

	pattern := filepath.Join(cfg.TemplateDir, "*.html")
	tmpl, err := template.New("").Funcs(funcMap).ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates from %s: %w", pattern, err)
	}

	sessionStore := sessions.NewCookieStore(cfg.SessionSecret)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	}

	return &WebHandler{
		authService:    authService,
		historyService: historyService,
		classifier:     clf,
		mailer:         mailer,
		templates:      tmpl,
		sessionStore:   sessionStore,
		config:         cfg,
	}, nil
}

func (h *WebHandler) session(r *http.Request) *sessions.Session {
	session, _ := h.sessionStore.Get(r, sessionName)
	return session
}

func (h *WebHandler) currentUsername(r *http.Request) string {
	username, _ := h.session(r).Values["username"].(string)
	return username
}

func (h *WebHandler) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	session := h.session(r)
	session.AddFlash(Flash{Category: category, Message: message})
	if err := session.Save(r, w); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
	}
}

// requireLogin redirects anonymous visitors to the login page with a
// warning notice. Returns false when the request was redirected.
func (h *WebHandler) requireLogin(w http.ResponseWriter, r *http.Request) bool {
	if h.currentUsername(r) != "" {
		return true
	}
	h.flash(w, r, "warning", "Please login first.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return false
}

// render executes a page template, folding in the session identity and
// draining pending flashes.
func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	session := h.session(r)
	if username, ok := session.Values["username"].(string); ok && username != "" {
		data.Username = username
		data.LoggedIn = true
	}
	for _, f := range session.Flashes() {
		if flash, ok := f.(Flash); ok {
			data.Flashes = append(data.Flashes, flash)
		}
	}
	if err := session.Save(r, w); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
	}
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Error().Err(err).Str("template", name).Msg("Template execution failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Page handlers

func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index.html", PageData{Page: "index"})
}

func (h *WebHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "about.html", PageData{Page: "about"})
}

func (h *WebHandler) FAQPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "faq.html", PageData{Page: "faq", FAQs: faqs})
}

// Classification handlers

func (h *WebHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if !h.requireLogin(w, r) {
		return
	}

	text := strings.TrimSpace(r.FormValue("requirement_text"))
	if text == "" {
		h.flash(w, r, "warning", "Please enter a requirement.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	label, err := h.classifier.Predict(text)
	if err != nil {
		if errors.Is(err, classifier.ErrModelUnavailable) {
			h.flash(w, r, "danger", "Model not loaded.")
		} else {
			logger.Error().Err(err).Msg("Prediction failed")
			h.flash(w, r, "danger", "Prediction failed.")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.historyService.Append(models.HistoryEntry{Requirement: text, Prediction: label}); err != nil {
		logger.Error().Err(err).Msg("Failed to record prediction")
	}

	h.render(w, r, "index.html", PageData{Page: "index", Prediction: label})
}

func (h *WebHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.requireLogin(w, r) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		h.flash(w, r, "warning", "No file selected.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	defer file.Close()

	name := upload.SanitizeFilename(header.Filename)
	if name == "" || !upload.AllowedFile(name) {
		h.flash(w, r, "danger", "Unsupported file type.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	savedPath := filepath.Join(h.config.UploadDir, uuid.New().String()+"_"+name)
	if err := saveUpload(file, savedPath); err != nil {
		logger.Error().Err(err).Str("path", savedPath).Msg("Failed to save upload")
		h.flash(w, r, "danger", "Could not save the uploaded file.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	requirements, err := upload.Parse(savedPath)
	if err != nil {
		if errors.Is(err, upload.ErrMissingRequirementColumn) {
			h.flash(w, r, "danger", "Column 'requirement' not found.")
		} else {
			logger.Error().Err(err).Str("path", savedPath).Msg("Failed to parse upload")
			h.flash(w, r, "danger", fmt.Sprintf("Error: %v", err))
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	labels, err := h.classifier.PredictBatch(requirements)
	if err != nil {
		if errors.Is(err, classifier.ErrModelUnavailable) {
			h.flash(w, r, "danger", "Model not loaded.")
		} else {
			logger.Error().Err(err).Msg("Batch prediction failed")
			h.flash(w, r, "danger", "Prediction failed.")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	entries := make([]models.HistoryEntry, len(requirements))
	var functional, nonFunctional []string
	for i, requirement := range requirements {
		entries[i] = models.HistoryEntry{Requirement: requirement, Prediction: labels[i]}
		if labels[i] == models.LabelFunctional {
			functional = append(functional, requirement)
		} else {
			nonFunctional = append(nonFunctional, requirement)
		}
	}
	if err := h.historyService.Append(entries...); err != nil {
		logger.Error().Err(err).Msg("Failed to record batch predictions")
	}

	if err := upload.WriteCategorized(h.config.CategorizedPath(), requirements, labels); err != nil {
		logger.Error().Err(err).Msg("Failed to write categorized artifact")
	}

	h.flash(w, r, "success", "Successfully categorized!")
	h.render(w, r, "index.html", PageData{
		Page:          "index",
		Functional:    functional,
		NonFunctional: nonFunctional,
	})
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// History handlers

func (h *WebHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.requireLogin(w, r) {
		return
	}

	entries, err := h.historyService.All()
	if err != nil {
		h.flash(w, r, "danger", "Could not load history.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, "categories.html", PageData{Page: "categories", History: entries})
}

func (h *WebHandler) DeleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireLogin(w, r) {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		h.flash(w, r, "danger", "Invalid index.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	switch err := h.historyService.Delete(index); {
	case err == nil:
		h.flash(w, r, "info", "Entry deleted.")
	case errors.Is(err, store.ErrIndexOutOfRange):
		h.flash(w, r, "danger", "Invalid index.")
	default:
		logger.Error().Err(err).Int("index", index).Msg("Failed to delete history entry")
		h.flash(w, r, "danger", "Could not delete the entry.")
	}
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (h *WebHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.requireLogin(w, r) {
		return
	}

	path := h.config.CategorizedPath()
	if _, err := os.Stat(path); err != nil {
		h.flash(w, r, "danger", "No file available to download.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="categorized_output.csv"`)
	http.ServeFile(w, r, path)
}

func (h *WebHandler) Graph(w http.ResponseWriter, r *http.Request) {
	if !h.requireLogin(w, r) {
		return
	}

	functional, nonFunctional, err := h.historyService.Counts()
	if err != nil {
		h.flash(w, r, "danger", "Could not load history.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if functional+nonFunctional == 0 {
		h.flash(w, r, "warning", "No data available to generate the graph.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	png, err := chart.RenderPie(functional, nonFunctional)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to render chart")
		h.flash(w, r, "danger", "Could not render the graph.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.render(w, r, "graph.html", PageData{
		Page:     "graph",
		GraphURL: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
	})
}

// Contact handler

func (h *WebHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "contact.html", PageData{Page: "contact"})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	message := strings.TrimSpace(r.FormValue("message"))

	switch {
	case name == "" || email == "" || message == "":
		h.flash(w, r, "warning", "All fields are required.")
	case h.mailer.Send(name, email, message) != nil:
		h.flash(w, r, "danger", "Could not send message.")
	default:
		h.flash(w, r, "success", "Message sent!")
	}
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

// Authentication handlers

func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.currentUsername(r) != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, "login.html", PageData{Page: "login"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	user, err := h.authService.Authenticate(username, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Error().Err(err).Msg("Login failed")
		}
		h.flash(w, r, "danger", "Invalid username or password.")
		h.render(w, r, "login.html", PageData{Page: "login"})
		return
	}

	session := h.session(r)
	session.Values["username"] = user.Username
	session.AddFlash(Flash{Category: "success", Message: fmt.Sprintf("Welcome back, %s!", user.Username)})
	if err := session.Save(r, w); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WebHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h.currentUsername(r) != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, "signup.html", PageData{Page: "signup"})
		return
	}

	_, err := h.authService.Register(
		r.FormValue("username"),
		r.FormValue("email"),
		r.FormValue("password"),
		r.FormValue("password2"),
	)
	switch {
	case err == nil:
		h.flash(w, r, "success", "Signup successful! Please login.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	case errors.Is(err, auth.ErrMissingField):
		h.flash(w, r, "warning", "All fields are required.")
	case errors.Is(err, auth.ErrPasswordMismatch):
		h.flash(w, r, "danger", "Passwords do not match.")
	case errors.Is(err, auth.ErrUsernameTaken):
		h.flash(w, r, "danger", "Username already taken.")
	default:
		logger.Error().Err(err).Msg("Signup failed")
		h.flash(w, r, "danger", "Signup failed.")
	}
	http.Redirect(w, r, "/signup", http.StatusSeeOther)
}

func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	delete(session.Values, "username")
	session.AddFlash(Flash{Category: "info", Message: "Logged out successfully."})
	if err := session.Save(r, w); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
