package testutils

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestServer wraps httptest.Server with a cookie-jar client so session
// cookies and flash notices survive across requests, the way a browser
// carries them.
type TestServer struct {
	*httptest.Server
	Client *http.Client
	t      *testing.T
}

func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	server := httptest.NewServer(handler)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &TestServer{
		Server: server,
		Client: &http.Client{Jar: jar},
		t:      t,
	}
}

func (ts *TestServer) GET(path string) *http.Response {
	resp, err := ts.Client.Get(ts.URL + path)
	require.NoError(ts.t, err)
	return resp
}

func (ts *TestServer) PostForm(path string, form url.Values) *http.Response {
	resp, err := ts.Client.PostForm(ts.URL+path, form)
	require.NoError(ts.t, err)
	return resp
}

// PostFile uploads contents as a multipart form file under the given
// field name.
func (ts *TestServer) PostFile(path, field, filename string, contents []byte) *http.Response {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(field, filename)
	require.NoError(ts.t, err)
	_, err = part.Write(contents)
	require.NoError(ts.t, err)
	require.NoError(ts.t, writer.Close())

	req, err := http.NewRequest("POST", ts.URL+path, &body)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := ts.Client.Do(req)
	require.NoError(ts.t, err)
	return resp
}

func ReadBody(t *testing.T, resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

// AssertBodyContains reads the response body and checks each needle.
func AssertBodyContains(t *testing.T, resp *http.Response, needles ...string) {
	body := ReadBody(t, resp)
	for _, needle := range needles {
		require.True(t, strings.Contains(body, needle), "body does not contain %q:\n%s", needle, body)
	}
}
