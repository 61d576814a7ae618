package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"
)

const testDocs = "/v1/projects/proj/databases/(default)/documents/artifacts/frame-ink/public/data"

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/v1", "proj", AppRoot("frame-ink"), tokens)
}

func TestGetDocument(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != testDocs+"/config/global" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"name":"x","fields":{
			"interval":{"integerValue":"15"},
			"current_image":{"stringValue":"a.jpg"},
			"last_seen":{"timestampValue":"2024-05-01T10:00:00.123Z"}}}`)
	}, StaticToken("tok"))

	doc, err := c.GetDocument(context.Background(), ConfigDocument)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if got := doc.Int("interval"); got != 15 {
		t.Errorf("interval = %d, want 15", got)
	}
	if got := doc.String("current_image"); got != "a.jpg" {
		t.Errorf("current_image = %q", got)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)
	if got := doc.Time("last_seen"); !got.Equal(want) {
		t.Errorf("last_seen = %v, want %v", got, want)
	}
	if got := doc.String("missing"); got != "" {
		t.Errorf("missing field = %q", got)
	}
}

func TestGetDocumentWithoutCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected Authorization %q", h)
		}
		io.WriteString(w, `{"fields":{}}`)
	}, StaticToken(""))

	if _, err := c.GetDocument(context.Background(), ConfigDocument); err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusServiceUnavailable, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}, nil)
			_, err := c.GetDocument(context.Background(), ConfigDocument)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != testDocs+":runQuery" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body runQueryRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		q := body.StructuredQuery
		if len(q.From) != 1 || q.From[0].CollectionID != RegistryCollection {
			t.Errorf("from = %+v", q.From)
		}
		if q.Where == nil || q.Where.FieldFilter.Op != "EQUAL" || *q.Where.FieldFilter.Value.StringValue != "b.jpg" {
			t.Errorf("where = %+v", q.Where)
		}
		io.WriteString(w, `[
			{"readTime":"2024-05-01T10:00:00Z"},
			{"document":{"fields":{"name":{"stringValue":"b.jpg"},"url":{"stringValue":"https://cdn/b.jpg"}}}}
		]`)
	}, nil)

	u, err := NewFrameStore(c).LookupImageURL(context.Background(), "b.jpg")
	if err != nil {
		t.Fatalf("LookupImageURL: %v", err)
	}
	if u != "https://cdn/b.jpg" {
		t.Errorf("url = %q", u)
	}
}

func TestLookupImageURLMiss(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"readTime":"2024-05-01T10:00:00Z"}]`)
	}, nil)

	_, err := NewFrameStore(c).LookupImageURL(context.Background(), "gone.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListImageNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"document":{"fields":{"name":{"stringValue":"a.jpg"}}}},
			{"document":{"fields":{"name":{"stringValue":""}}}},
			{"document":{"fields":{"name":{"stringValue":"b.jpg"}}}}
		]`)
	}, nil)

	names, err := NewFrameStore(c).ListImageNames(context.Background())
	if err != nil {
		t.Fatalf("ListImageNames: %v", err)
	}
	if !slices.Equal(names, []string{"a.jpg", "b.jpg"}) {
		t.Errorf("names = %v", names)
	}
}

func TestPatchRequiresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	}, StaticToken(""))

	err := NewFrameStore(c).AssignImage(context.Background(), "a.jpg")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}

func TestReportHeartbeat(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != testDocs+"/config/global" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		mask := r.URL.Query()["updateMask.fieldPaths"]
		if !slices.Equal(mask, []string{"last_seen", "status"}) {
			t.Errorf("mask = %v", mask)
		}
		var doc Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got := doc.String("status"); got != StatusOnline {
			t.Errorf("status = %q", got)
		}
		if got := doc.Time("last_seen"); !got.Equal(at) {
			t.Errorf("last_seen = %v", got)
		}
		io.WriteString(w, `{}`)
	}, StaticToken("tok"))

	if err := NewFrameStore(c).ReportHeartbeat(context.Background(), at); err != nil {
		t.Fatalf("ReportHeartbeat: %v", err)
	}
}
