// Package firestore is a small REST client for the frame's remote document store
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client issues document reads, structured queries and masked patches against
// one document root, e.g. artifacts/<app>/public/data.
type Client struct {
	documentsURL string
	root         string
	tokens       TokenProvider
	http         *http.Client
}

// NewClient builds a client for baseURL (https://firestore.googleapis.com/v1)
// scoped to root inside the project's default database.
func NewClient(baseURL, projectID, root string, tokens TokenProvider) *Client {
	return &Client{
		documentsURL: fmt.Sprintf("%s/projects/%s/databases/(default)/documents", strings.TrimRight(baseURL, "/"), projectID),
		root:         strings.Trim(root, "/"),
		tokens:       tokens,
		http:         &http.Client{Timeout: defaultTimeout},
	}
}

// AppRoot is the document root used by the frame for an app id.
func AppRoot(appID string) string {
	return fmt.Sprintf("artifacts/%s/public/data", appID)
}

func (c *Client) documentURL(path string) string {
	return c.documentsURL + "/" + c.root + "/" + strings.Trim(path, "/")
}

// GetDocument reads a document relative to the client root.
func (c *Client) GetDocument(ctx context.Context, path string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.documentURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorizeOptional(ctx, req)

	var doc Document
	if err := c.do(req, &doc); err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &doc, nil
}

// RunQuery executes a structured query under the client root and returns the
// matched documents in server order.
func (c *Client) RunQuery(ctx context.Context, q StructuredQuery) ([]Document, error) {
	body, err := json.Marshal(runQueryRequest{StructuredQuery: q})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	u := c.documentsURL + "/" + c.root + ":runQuery"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorizeOptional(ctx, req)

	var results []runQueryResult
	if err := c.do(req, &results); err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		if r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs, nil
}

// PatchDocument writes the given fields, restricted to mask. An empty mask
// uses the keys of fields.
func (c *Client) PatchDocument(ctx context.Context, path string, fields map[string]Value, mask ...string) error {
	if len(mask) == 0 {
		mask = slices.Sorted(maps.Keys(fields))
	}

	if c.tokens == nil {
		return fmt.Errorf("patch %s: %w", path, ErrNoCredentials)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}

	body, err := json.Marshal(Document{Fields: fields})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	q := url.Values{}
	for _, f := range mask {
		q.Add("updateMask.fieldPaths", f)
	}
	u := c.documentURL(path) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	return nil
}

// authorizeOptional attaches a token to read requests when one can be had.
// Public rules allow anonymous reads, so a missing token is not an error.
func (c *Client) authorizeOptional(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			slog.Debug("reading remote store without token", "error", err)
		}
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
