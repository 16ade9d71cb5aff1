// Package notion implements the upload collaborator against the Notion API
// using the direct-upload handshake: create a file_upload, send the bytes,
// then create a database page referencing the upload. The client validates
// the configured files property against the database schema before
// attaching, and surfaces every failure with the handshake stage that
// produced it. No step is retried.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/jobsnap/core"
)

// DefaultBaseURL is the Notion API root.
const DefaultBaseURL = "https://api.notion.com/v1"

// DefaultVersion is the Notion-Version header sent when none is configured.
const DefaultVersion = "2022-06-28"

// Config configures the Notion client.
type Config struct {
	Token      string
	DatabaseID string

	// Version overrides the Notion-Version header. Default: DefaultVersion.
	Version string

	// FilesProperty is the database property the PDF is attached to.
	// Empty disables the attachment; the page is still created.
	FilesProperty string

	// NoteProperty is the rich_text property a generated company note is
	// written to, when the schema has it. Empty disables the write.
	NoteProperty string

	// AttachFile controls whether the document is uploaded at all.
	// When false only the metadata page is created (--no-upload).
	AttachFile bool

	// BaseURL overrides the API root, for tests.
	BaseURL string

	// HTTPClient overrides the transport, for tests.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Client talks to the Notion API. It implements core.Uploader.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. Token and DatabaseID are required.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" || cfg.DatabaseID == "" {
		return nil, errors.New("notion: token and database ID are required")
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// Upload runs the three-step handshake and returns the created page ID.
// When AttachFile is false, steps one and two are skipped and the page is
// created without the files property.
func (c *Client) Upload(ctx context.Context, document []byte, mimeType string, filename string, meta core.JobMetadata) (string, error) {
	schema, err := c.databaseProperties(ctx)
	if err != nil {
		return "", &core.UploadError{Stage: "database-schema", Err: err}
	}

	var uploadID string
	if c.cfg.AttachFile {
		uploadID, err = c.createFileUpload(ctx, filename, mimeType)
		if err != nil {
			return "", &core.UploadError{Stage: "create-upload", Err: err}
		}
		if err := c.sendFileBytes(ctx, uploadID, filename, mimeType, document); err != nil {
			return "", &core.UploadError{Stage: "send-bytes", Err: err}
		}
		c.cfg.Logger.Debug().Str("upload_id", uploadID).Int("bytes", len(document)).Msg("file upload complete")
	}

	pageID, err := c.createPage(ctx, meta, schema, uploadID, filename)
	if err != nil {
		return "", &core.UploadError{Stage: "create-record", Err: err}
	}
	return pageID, nil
}

// databaseProperties fetches the target database's property schema.
func (c *Client) databaseProperties(ctx context.Context) (map[string]propertySchema, error) {
	var out struct {
		Properties map[string]propertySchema `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, "/databases/"+c.cfg.DatabaseID, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Properties, nil
}

type propertySchema struct {
	Type string `json:"type"`
}

// createFileUpload registers the upcoming file and returns its upload ID.
func (c *Client) createFileUpload(ctx context.Context, filename, mimeType string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"filename":     filename,
		"content_type": mimeType,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding file_upload request")
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/file_uploads", bytes.NewReader(body), "application/json", &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("file_upload response missing id")
	}
	return out.ID, nil
}

// sendFileBytes transmits the document as multipart form data.
func (c *Client) sendFileBytes(ctx context.Context, uploadID, filename, mimeType string, document []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return errors.Wrap(err, "building multipart body")
	}
	if _, err := part.Write(document); err != nil {
		return errors.Wrap(err, "writing multipart body")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing multipart body")
	}

	return c.do(ctx, http.MethodPost, "/file_uploads/"+uploadID+"/send", &buf, w.FormDataContentType(), nil)
}

// createPage creates the database page carrying the metadata and, when an
// upload succeeded and the schema has a files property of the right type,
// the document attachment.
func (c *Client) createPage(ctx context.Context, meta core.JobMetadata, schema map[string]propertySchema, uploadID, filename string) (string, error) {
	properties := map[string]interface{}{
		"Name": map[string]interface{}{
			"title": []interface{}{textBlock(meta.Title)},
		},
		"Company": map[string]interface{}{
			"rich_text": []interface{}{textBlock(meta.Company)},
		},
		"URL": map[string]interface{}{
			"url": meta.URL,
		},
	}

	if uploadID != "" && c.cfg.FilesProperty != "" {
		if prop, ok := schema[c.cfg.FilesProperty]; ok && prop.Type == "files" {
			properties[c.cfg.FilesProperty] = map[string]interface{}{
				"type": "files",
				"files": []interface{}{map[string]interface{}{
					"type":        "file_upload",
					"file_upload": map[string]string{"id": uploadID},
					"name":        filename,
				}},
			}
		} else {
			c.cfg.Logger.Warn().Str("property", c.cfg.FilesProperty).
				Msg("files property missing or not of type files; document not attached")
		}
	}

	if meta.CompanyNote != "" && c.cfg.NoteProperty != "" {
		if prop, ok := schema[c.cfg.NoteProperty]; ok && prop.Type == "rich_text" {
			properties[c.cfg.NoteProperty] = map[string]interface{}{
				"rich_text": []interface{}{textBlock(meta.CompanyNote)},
			}
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"parent":     map[string]string{"database_id": c.cfg.DatabaseID},
		"properties": properties,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding page request")
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/pages", bytes.NewReader(payload), "application/json", &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("page response missing id")
	}
	return out.ID, nil
}

// do issues one API request, decoding the JSON response into out when
// non-nil. Non-2xx responses become errors carrying the response body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", c.cfg.Version)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(string(data), 300))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func textBlock(content string) map[string]interface{} {
	return map[string]interface{}{
		"type": "text",
		"text": map[string]string{"content": content},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes)", s[:n], len(s))
}
