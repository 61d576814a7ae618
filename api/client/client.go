// Package client talks to a frame's local control api
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aouyang1/inkframe/api/models"
	"github.com/aouyang1/inkframe/store"
)

var ErrNotFound = errors.New("not found")

type FrameClient struct {
	baseURL string
	client  *http.Client
}

func NewFrameClient(baseURL string) *FrameClient {
	return &FrameClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (fc *FrameClient) do(req *http.Request, out any) error {
	resp, err := fc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		msg := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (fc *FrameClient) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, fc.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return fc.do(req, out)
}

func (fc *FrameClient) sendJSON(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, fc.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return fc.do(req, out)
}

func (fc *FrameClient) Status() (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := fc.get("/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (fc *FrameClient) Config() (*store.DeviceConfig, error) {
	var out store.DeviceConfig
	if err := fc.get("/api/config", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConfig sends only the non-nil fields of upd.
func (fc *FrameClient) UpdateConfig(upd store.ConfigUpdate) (*store.DeviceConfig, error) {
	body := map[string]any{}
	if upd.CurrentImage != nil {
		body["current_image"] = *upd.CurrentImage
	}
	if upd.Interval != nil {
		body["interval"] = *upd.Interval
	}
	if upd.Rotation != nil {
		body["rotation"] = *upd.Rotation
	}

	var out store.DeviceConfig
	if err := fc.sendJSON(http.MethodPost, "/api/config", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (fc *FrameClient) Images() ([]models.Image, error) {
	var out []models.Image
	if err := fc.get("/api/images", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload sends the file at path, named by its base name.
func (fc *FrameClient) Upload(path string) (*models.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequest(http.MethodPost, fc.baseURL+"/api/upload", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.UploadResponse
	if err := fc.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (fc *FrameClient) Display(name string) (*models.DisplayResponse, error) {
	var out models.DisplayResponse
	if err := fc.sendJSON(http.MethodPost, "/api/display/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (fc *FrameClient) Rename(oldName, newName string) (*models.RenameResponse, error) {
	var out models.RenameResponse
	path := "/api/images/" + url.PathEscape(oldName) + "/rename"
	if err := fc.sendJSON(http.MethodPost, path, models.RenameRequest{Name: newName}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an image. Deleting an absent image is not an error; check
// the returned status for models.StatusNotFound.
func (fc *FrameClient) Delete(name string) (*models.DeleteResponse, error) {
	var out models.DeleteResponse
	if err := fc.sendJSON(http.MethodDelete, "/api/images/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (fc *FrameClient) History(limit int) ([]store.DisplayEvent, error) {
	var out models.HistoryResponse
	if err := fc.get(fmt.Sprintf("/api/history?limit=%d", limit), &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}
