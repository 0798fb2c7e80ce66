// Package model defines shared types for the relay.
package model

import (
	"io"
	"net/http"
)

// UpstreamResponse is one reply from the archive host.
type UpstreamResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       io.ReadCloser
}

// Archive is a fully buffered municipality archive ready to relay.
type Archive struct {
	Identifier string
	URL        string
	Data       []byte
}

// Filename returns the download name suggested to the client.
func (a *Archive) Filename() string {
	return a.Identifier + ".zip"
}

// Size returns the archive length in bytes.
func (a *Archive) Size() int {
	return len(a.Data)
}
