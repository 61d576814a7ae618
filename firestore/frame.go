package firestore

import (
	"context"
	"fmt"
	"time"
)

const (
	ConfigDocument     = "config/global"
	RegistryCollection = "images"

	StatusOnline = "Online"
)

// RemoteConfig is the frame's singleton config document.
type RemoteConfig struct {
	Interval       int
	CurrentImage   string
	ConfirmedImage string
}

// FrameStore exposes the frame-level operations on top of a Client.
type FrameStore struct {
	client *Client
}

func NewFrameStore(client *Client) *FrameStore {
	return &FrameStore{client: client}
}

func (s *FrameStore) FetchConfig(ctx context.Context) (RemoteConfig, error) {
	doc, err := s.client.GetDocument(ctx, ConfigDocument)
	if err != nil {
		return RemoteConfig{}, err
	}
	return RemoteConfig{
		Interval:       int(doc.Int("interval")),
		CurrentImage:   doc.String("current_image"),
		ConfirmedImage: doc.String("confirmed_image"),
	}, nil
}

// LookupImageURL returns the download URL registered for name. ErrNotFound is
// returned when no registry entry matches or the entry has no url.
func (s *FrameStore) LookupImageURL(ctx context.Context, name string) (string, error) {
	docs, err := s.client.RunQuery(ctx, StructuredQuery{
		From: []CollectionSelector{{CollectionID: RegistryCollection}},
		Where: &Filter{FieldFilter: &FieldFilter{
			Field: FieldReference{FieldPath: "name"},
			Op:    "EQUAL",
			Value: String(name),
		}},
		Limit: 1,
	})
	if err != nil {
		return "", err
	}
	for _, d := range docs {
		if u := d.String("url"); u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("registry entry %q: %w", name, ErrNotFound)
}

// ListImageNames returns every non-empty name in the registry.
func (s *FrameStore) ListImageNames(ctx context.Context) ([]string, error) {
	docs, err := s.client.RunQuery(ctx, StructuredQuery{
		Select: &Projection{Fields: []FieldReference{{FieldPath: "name"}}},
		From:   []CollectionSelector{{CollectionID: RegistryCollection}},
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		if n := d.String("name"); n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

// AssignImage sets the config's current_image, which the agent then picks up.
func (s *FrameStore) AssignImage(ctx context.Context, name string) error {
	return s.client.PatchDocument(ctx, ConfigDocument, map[string]Value{
		"current_image": String(name),
	})
}

// ConfirmImage records the name of the image actually rendered.
func (s *FrameStore) ConfirmImage(ctx context.Context, name string) error {
	return s.client.PatchDocument(ctx, ConfigDocument, map[string]Value{
		"confirmed_image": String(name),
	})
}

func (s *FrameStore) ReportHeartbeat(ctx context.Context, at time.Time) error {
	return s.client.PatchDocument(ctx, ConfigDocument, map[string]Value{
		"last_seen": Timestamp(at),
		"status":    String(StatusOnline),
	}, "last_seen", "status")
}
