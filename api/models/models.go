// Package models tracks all api models for request and responses
package models

import "github.com/aouyang1/inkframe/store"

type StatusResponse struct {
	Status       string              `json:"status"`
	Time         string              `json:"time"`
	StorageUsage int64               `json:"storage_usage"`
	ImageCount   int                 `json:"image_count"`
	Config       *store.DeviceConfig `json:"config"`
}

type Image struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Size    int64  `json:"size"`
	Created int64  `json:"created"`
}

type UploadResponse struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

type DisplayResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type RenameResponse struct {
	Status string `json:"status"`
	Old    string `json:"old"`
	New    string `json:"new"`
}

type DeleteResponse struct {
	Status string `json:"status"`
}

type HistoryResponse struct {
	Events []store.DisplayEvent `json:"events"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	StatusOnline   = "online"
	StatusUploaded = "uploaded"
	StatusSuccess  = "success"
	StatusRenamed  = "renamed"
	StatusDeleted  = "deleted"
	StatusNotFound = "not_found"
)
