package web

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqclassify/internal/auth"
	"reqclassify/internal/classifier"
	"reqclassify/internal/config"
	"reqclassify/internal/history"
	"reqclassify/internal/store"
	"reqclassify/models"
	"reqclassify/tests/testutils"
)

// stubClassifier labels anything mentioning timing language as
// non-functional; everything else is functional.
type stubClassifier struct {
	calls int
}

func (s *stubClassifier) Predict(text string) (string, error) {
	s.calls++
	lower := strings.ToLower(text)
	for _, marker := range []string{"ms", "second", "time"} {
		if strings.Contains(lower, marker) {
			return models.LabelNonFunctional, nil
		}
	}
	return models.LabelFunctional, nil
}

func (s *stubClassifier) PredictBatch(texts []string) ([]string, error) {
	labels := make([]string, len(texts))
	for i, text := range texts {
		label, err := s.Predict(text)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}

type stubMailer struct {
	err  error
	sent int
}

func (m *stubMailer) Send(fromName, fromEmail, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	return nil
}

type fixture struct {
	handler *WebHandler
	server  *testutils.TestServer
	users   *store.UserStore
	history *history.HistoryService
	clf     *stubClassifier
	mailer  *stubMailer
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	dataDir := t.TempDir()
	cfg := &config.Config{
		SessionSecret: []byte("test-secret"),
		DataDir:       dataDir,
		UploadDir:     filepath.Join(dataDir, "uploads"),
		TemplateDir:   "../../templates",
	}
	require.NoError(t, os.MkdirAll(cfg.UploadDir, 0755))

	users := store.NewUserStore(cfg.UsersPath())
	historyService := history.NewHistoryService(store.NewHistoryStore(cfg.HistoryPath()))
	clf := &stubClassifier{}
	mailer := &stubMailer{}

	handler, err := NewWebHandler(auth.NewAuthService(users), historyService, clf, mailer, cfg)
	require.NoError(t, err)

	server := testutils.NewTestServer(t, handler.SetupRoutes())
	t.Cleanup(server.Close)

	return &fixture{
		handler: handler,
		server:  server,
		users:   users,
		history: historyService,
		clf:     clf,
		mailer:  mailer,
		cfg:     cfg,
	}
}

func (f *fixture) signup(t *testing.T, username string) {
	resp := f.server.PostForm("/signup", url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password":  {"s3cret"},
		"password2": {"s3cret"},
	})
	testutils.AssertBodyContains(t, resp, "Signup successful!")
}

func (f *fixture) login(t *testing.T, username string) {
	resp := f.server.PostForm("/login", url.Values{
		"username": {username},
		"password": {"s3cret"},
	})
	testutils.AssertBodyContains(t, resp, "Welcome back, "+username+"!")
}

func (f *fixture) historyEntries(t *testing.T) []models.HistoryEntry {
	entries, err := f.history.All()
	require.NoError(t, err)
	return entries
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	// Visiting /login while authenticated bounces back to the index.
	resp := f.server.GET("/login")
	testutils.AssertBodyContains(t, resp, "Classify a requirement")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	resp := f.server.PostForm("/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	testutils.AssertBodyContains(t, resp, "Invalid username or password.")

	// The session stays anonymous, so protected pages still bounce.
	resp = f.server.GET("/categories")
	testutils.AssertBodyContains(t, resp, "Please login first.")
}

func TestSignup_PasswordMismatch(t *testing.T) {
	f := newFixture(t)

	resp := f.server.PostForm("/signup", url.Values{
		"username":  {"alice"},
		"email":     {"alice@example.com"},
		"password":  {"one"},
		"password2": {"two"},
	})
	testutils.AssertBodyContains(t, resp, "Passwords do not match.")

	stored, err := f.users.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSignup_UsernameTaken(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	resp := f.server.PostForm("/signup", url.Values{
		"username":  {"alice"},
		"email":     {"other@example.com"},
		"password":  {"pw"},
		"password2": {"pw"},
	})
	testutils.AssertBodyContains(t, resp, "Username already taken.")

	stored, err := f.users.Load()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "alice@example.com", stored["alice"].Email)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.GET("/logout")
	testutils.AssertBodyContains(t, resp, "Logged out successfully.")

	resp = f.server.GET("/categories")
	testutils.AssertBodyContains(t, resp, "Please login first.")
}

func TestPredict_RequiresLogin(t *testing.T) {
	f := newFixture(t)

	resp := f.server.PostForm("/predict", url.Values{"requirement_text": {"Login with password"}})
	testutils.AssertBodyContains(t, resp, "Please login first.")
	assert.Zero(t, f.clf.calls)
	assert.Empty(t, f.historyEntries(t))
}

func TestPredict(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.PostForm("/predict", url.Values{
		"requirement_text": {"The system shall respond within 2 seconds"},
	})
	testutils.AssertBodyContains(t, resp, "non-functional")

	entries := f.historyEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "The system shall respond within 2 seconds", entries[0].Requirement)
	assert.Equal(t, models.LabelNonFunctional, entries[0].Prediction)
}

func TestPredict_EmptyInput(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.PostForm("/predict", url.Values{"requirement_text": {"   "}})
	testutils.AssertBodyContains(t, resp, "Please enter a requirement.")
	assert.Zero(t, f.clf.calls)
	assert.Empty(t, f.historyEntries(t))
}

func TestPredict_ModelUnavailable(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")
	f.handler.classifier = classifier.Unavailable{}

	resp := f.server.PostForm("/predict", url.Values{"requirement_text": {"Login with password"}})
	testutils.AssertBodyContains(t, resp, "Model not loaded.")
	assert.Empty(t, f.historyEntries(t))
}

func TestUpload_CSV(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	contents := []byte("requirement\nLogin with password\nResponse time under 100ms\n")
	resp := f.server.PostFile("/upload", "file", "reqs.csv", contents)
	testutils.AssertBodyContains(t, resp,
		"Successfully categorized!",
		"Login with password",
		"Response time under 100ms",
	)

	entries := f.historyEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, models.LabelFunctional, entries[0].Prediction)
	assert.Equal(t, models.LabelNonFunctional, entries[1].Prediction)

	artifact, err := os.ReadFile(f.cfg.CategorizedPath())
	require.NoError(t, err)
	assert.Contains(t, string(artifact), "requirement,prediction")
}

func TestUpload_MissingRequirementColumn(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.PostFile("/upload", "file", "reqs.csv", []byte("text\nLogin with password\n"))
	testutils.AssertBodyContains(t, resp, "not found.")
	assert.Empty(t, f.historyEntries(t))
}

func TestUpload_DisallowedExtension(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.PostFile("/upload", "file", "reqs.txt", []byte("requirement\nfoo\n"))
	testutils.AssertBodyContains(t, resp, "Unsupported file type.")
	assert.Empty(t, f.historyEntries(t))
}

func TestUpload_NoFile(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.PostForm("/upload", url.Values{})
	testutils.AssertBodyContains(t, resp, "No file selected.")
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")
	require.NoError(t, f.history.Append(
		models.HistoryEntry{Requirement: "Login with password", Prediction: models.LabelFunctional},
	))

	resp := f.server.GET("/categories")
	testutils.AssertBodyContains(t, resp, "Login with password", "functional")
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")
	require.NoError(t, f.history.Append(
		models.HistoryEntry{Requirement: "drop me", Prediction: models.LabelFunctional},
	))

	resp := f.server.PostForm("/delete/0", url.Values{})
	testutils.AssertBodyContains(t, resp, "Entry deleted.")
	assert.Empty(t, f.historyEntries(t))
}

func TestDelete_OutOfRange(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")
	require.NoError(t, f.history.Append(
		models.HistoryEntry{Requirement: "keep me", Prediction: models.LabelFunctional},
	))

	resp := f.server.PostForm("/delete/5", url.Values{})
	testutils.AssertBodyContains(t, resp, "Invalid index.")
	assert.Len(t, f.historyEntries(t), 1)
}

func TestDownload_NoArtifact(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.GET("/download")
	testutils.AssertBodyContains(t, resp, "No file available to download.")
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	contents := []byte("requirement\nLogin with password\n")
	resp := f.server.PostFile("/upload", "file", "reqs.csv", contents)
	resp.Body.Close()

	resp = f.server.GET("/download")
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	testutils.AssertBodyContains(t, resp, "requirement,prediction", "Login with password")
}

func TestGraph_EmptyHistory(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")

	resp := f.server.GET("/graph")
	testutils.AssertBodyContains(t, resp, "No data available to generate the graph.")
}

func TestGraph(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")
	f.login(t, "alice")
	require.NoError(t, f.history.Append(
		models.HistoryEntry{Requirement: "a", Prediction: models.LabelFunctional},
		models.HistoryEntry{Requirement: "b", Prediction: models.LabelNonFunctional},
	))

	resp := f.server.GET("/graph")
	testutils.AssertBodyContains(t, resp, "data:image/png;base64,")
}

func TestContact(t *testing.T) {
	f := newFixture(t)

	resp := f.server.PostForm("/contact", url.Values{
		"name":    {"Alice"},
		"email":   {"alice@example.com"},
		"message": {"Hello there"},
	})
	testutils.AssertBodyContains(t, resp, "Message sent!")
	assert.Equal(t, 1, f.mailer.sent)
}

func TestContact_TransportFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp unreachable")

	resp := f.server.PostForm("/contact", url.Values{
		"name":    {"Alice"},
		"email":   {"alice@example.com"},
		"message": {"Hello there"},
	})
	testutils.AssertBodyContains(t, resp, "Could not send message.")
}

func TestContact_MissingFields(t *testing.T) {
	f := newFixture(t)

	resp := f.server.PostForm("/contact", url.Values{"name": {"Alice"}})
	testutils.AssertBodyContains(t, resp, "All fields are required.")
	assert.Zero(t, f.mailer.sent)
}
