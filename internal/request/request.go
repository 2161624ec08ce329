package request

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

// Method is the only request method the responder acts on
const Method = "GET"

var (
	// ErrNoRequestLine is returned when the header block ended without a GET line
	ErrNoRequestLine = errors.New("no GET request line before end of headers")
	// ErrIncompleteRequest is returned when the stream ended or failed before
	// the blank line terminating the header block
	ErrIncompleteRequest = errors.New("request ended before end of headers")
)

// ReadPath consumes request lines from r until the blank line that ends the
// header block and returns the path of the last GET line seen.
//
// An empty path means no path was captured. It is returned together with
// ErrNoRequestLine or ErrIncompleteRequest, and callers treat it as not
// found.
func ReadPath(r *bufio.Reader) (string, error) {
	var path string
	var seen bool

	for {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return path, fmt.Errorf("%w: %v", ErrIncompleteRequest, err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil {
				return path, fmt.Errorf("%w: %v", ErrIncompleteRequest, err)
			}

			break
		}

		if p, ok := PathFromLine(line); ok {
			path, seen = p, true
		}

		if err != nil {
			return path, fmt.Errorf("%w: %v", ErrIncompleteRequest, err)
		}
	}

	if !seen {
		return "", ErrNoRequestLine
	}

	return path, nil
}

// PathFromLine extracts the path from a request line of the form
// "GET <path> <version>". The line matches when its first three bytes are
// exactly GET. The path ends at the next space, or at the end of the line
// when there is none.
func PathFromLine(line string) (string, bool) {
	if !strings.HasPrefix(line, Method) {
		return "", false
	}

	if len(line) <= len(Method)+1 {
		return "", true
	}

	path := line[len(Method)+1:]
	if i := strings.IndexByte(path, ' '); i >= 0 {
		path = path[:i]
	}

	return path, true
}
