package models

import (
	"encoding/json"
	"net/http"
)

// GalleryUploadForm is the multipart metadata sent with a gallery image
type GalleryUploadForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"max=2000"`
	Category    string `form:"category" binding:"max=64"`
	Order       int    `form:"order"`
	Publish     bool   `form:"publish"`
}

// MutationResult is returned by content create/update/delete calls.
// UpstreamStatus is the CMS status of a failed call when it answered non-2xx;
// Rejected marks a 2xx answer carrying success:false.
type MutationResult struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data,omitempty"`
	Error          string          `json:"error,omitempty"`
	Invalidated    int             `json:"invalidated"`
	UpstreamStatus int             `json:"upstreamStatus,omitempty"`
	Rejected       bool            `json:"-"`
}

// FailureStatus is the HTTP status to report for a failed mutation. CMS
// client errors pass through; anything else is a bad gateway.
func (r MutationResult) FailureStatus() int {
	switch {
	case r.UpstreamStatus >= 400 && r.UpstreamStatus < 500:
		return r.UpstreamStatus
	case r.Rejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// CacheStatusResponse describes the local content cache
type CacheStatusResponse struct {
	Enabled bool     `json:"enabled"`
	Entries int      `json:"entries"`
	Expired int      `json:"expired"`
	Keys    []string `json:"keys"`
}

// CacheClearResponse reports how many entries a housekeeping call removed
type CacheClearResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}
