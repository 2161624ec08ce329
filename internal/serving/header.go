package serving

import (
	"io"
	"net/http"
	"time"
)

const (
	// ServerHeader identifies the responder in the Server header
	ServerHeader = "Jon's very own server"

	protocol = "HTTP/1.1"
)

// WriteHeader writes the status line and headers for res to w. Lines end
// in a single "\n" and the block ends with a blank line. No Content-Length
// is sent; the body ends when the connection is closed.
func WriteHeader(w io.Writer, res Resource, now time.Time) error {
	lines := []string{
		protocol + " " + res.Status().String(),
		"Date: " + now.UTC().Format(http.TimeFormat),
		"Server: " + ServerHeader,
		"Connection: close",
		"Content-Type: " + res.ContentType,
		"",
	}

	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}
