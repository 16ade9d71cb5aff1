package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// fakeNotion implements the three-step handshake and records what it saw.
type fakeNotion struct {
	t *testing.T

	schemaType    string // type of the "Description" property in the schema
	failSend      bool
	createUploads int
	sends         int
	pageBody      map[string]interface{}
	sentBytes     []byte
}

func (f *fakeNotion) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /databases/db-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"properties": map[string]interface{}{
				"Name":        map[string]string{"type": "title"},
				"Company":     map[string]string{"type": "rich_text"},
				"URL":         map[string]string{"type": "url"},
				"Description": map[string]string{"type": f.schemaType},
			},
		})
	})

	mux.HandleFunc("POST /file_uploads", func(w http.ResponseWriter, r *http.Request) {
		f.createUploads++
		var req map[string]string
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(f.t, "application/pdf", req["content_type"])
		json.NewEncoder(w).Encode(map[string]string{"id": "fu-9"})
	})

	mux.HandleFunc("POST /file_uploads/fu-9/send", func(w http.ResponseWriter, r *http.Request) {
		f.sends++
		if f.failSend {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, `{"message":"storage unavailable"}`)
			return
		}
		require.NoError(f.t, r.ParseMultipartForm(16<<20))
		file, _, err := r.FormFile("file")
		require.NoError(f.t, err)
		defer file.Close()
		f.sentBytes, err = io.ReadAll(file)
		require.NoError(f.t, err)
		json.NewEncoder(w).Encode(map[string]string{"id": "fu-9"})
	})

	mux.HandleFunc("POST /pages", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.pageBody))
		json.NewEncoder(w).Encode(map[string]string{"id": "page-7"})
	})

	return mux
}

func newTestClient(t *testing.T, f *fakeNotion, attach bool) *Client {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Token:         "secret",
		DatabaseID:    "db-1",
		FilesProperty: "Description",
		AttachFile:    attach,
		BaseURL:       srv.URL,
		HTTPClient:    srv.Client(),
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	return c
}

var testMeta = core.JobMetadata{
	Title:   "Senior Gopher",
	Company: "Acme",
	URL:     "https://acme.com/jobs/1",
}

func TestUploadThreeStepHandshake(t *testing.T) {
	fake := &fakeNotion{t: t, schemaType: "files"}
	c := newTestClient(t, fake, true)

	document := []byte("%PDF-1.4 fake")
	id, err := c.Upload(context.Background(), document, "application/pdf", "2026-08-26-Acme-Senior_Gopher.pdf", testMeta)
	require.NoError(t, err)
	assert.Equal(t, "page-7", id)

	assert.Equal(t, 1, fake.createUploads)
	assert.Equal(t, 1, fake.sends)
	assert.Equal(t, document, fake.sentBytes)

	props := fake.pageBody["properties"].(map[string]interface{})
	assert.Contains(t, props, "Name")
	assert.Contains(t, props, "Company")
	assert.Contains(t, props, "URL")
	assert.Contains(t, props, "Description", "file attached via files property")
}

func TestUploadSkipsAttachmentWhenDisabled(t *testing.T) {
	fake := &fakeNotion{t: t, schemaType: "files"}
	c := newTestClient(t, fake, false)

	id, err := c.Upload(context.Background(), []byte("pdf"), "application/pdf", "x.pdf", testMeta)
	require.NoError(t, err)
	assert.Equal(t, "page-7", id)

	assert.Zero(t, fake.createUploads)
	assert.Zero(t, fake.sends)
	props := fake.pageBody["properties"].(map[string]interface{})
	assert.NotContains(t, props, "Description")
}

func TestUploadSkipsAttachmentWhenPropertyNotFiles(t *testing.T) {
	// Schema says "Description" is rich_text, so the document must not be
	// attached to it, but the page is still created.
	fake := &fakeNotion{t: t, schemaType: "rich_text"}
	c := newTestClient(t, fake, true)

	id, err := c.Upload(context.Background(), []byte("pdf"), "application/pdf", "x.pdf", testMeta)
	require.NoError(t, err)
	assert.Equal(t, "page-7", id)

	props := fake.pageBody["properties"].(map[string]interface{})
	assert.NotContains(t, props, "Description")
}

func TestUploadSendFailureSurfacesStage(t *testing.T) {
	fake := &fakeNotion{t: t, schemaType: "files", failSend: true}
	c := newTestClient(t, fake, true)

	_, err := c.Upload(context.Background(), []byte("pdf"), "application/pdf", "x.pdf", testMeta)

	var upErr *core.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "send-bytes", upErr.Stage)
	assert.Contains(t, err.Error(), "storage unavailable")
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		if strings.HasPrefix(r.URL.Path, "/databases/") {
			io.WriteString(w, `{"properties":{}}`)
			return
		}
		io.WriteString(w, `{"id":"page-1"}`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Token:      "secret",
		DatabaseID: "db-1",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), nil, "application/pdf", "x.pdf", testMeta)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, DefaultVersion, gotVersion)
}
