package serving

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	// NotFoundBody is the whole body sent for missing resources
	NotFoundBody = "<h3>Error: 404 not Found</h3>"

	// DateTag is replaced with the current local time
	DateTag = "<cs371date>"
	// ServerTag is replaced with ServerBanner
	ServerTag = "<cs371server>"
	// ServerBanner is the text written for ServerTag
	ServerBanner = "This is Mohammad's Server."

	// DateLayout renders dates as MM/dd/yy HH:mm:ss
	DateLayout = "01/02/06 15:04:05"
)

// ContentOptions controls how text resources are streamed
type ContentOptions struct {
	// ReplaceTags writes only the substitution for a tag line. When false
	// the substitution is followed by the tag line itself.
	ReplaceTags bool
	// Now returns the time used for DateTag, time.Now when nil
	Now func() time.Time
}

func (o ContentOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}

	return o.Now()
}

// WriteContent writes the body for res to w and returns the number of tags
// that were substituted. Missing resources get NotFoundBody without the
// file being opened, images are copied byte for byte and everything else
// is streamed line by line with tag substitution.
func WriteContent(w io.Writer, res Resource, opts ContentOptions) (int, error) {
	if !res.Exists {
		_, err := io.WriteString(w, NotFoundBody)
		return 0, err
	}

	f, err := os.Open(res.FullPath)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", res.Path, err)
	}
	defer f.Close()

	if IsImage(res.ContentType) {
		if _, err := io.Copy(w, f); err != nil {
			return 0, fmt.Errorf("copying %s: %w", res.Path, err)
		}

		return 0, nil
	}

	return writeText(w, f, opts)
}

// maxLineSize bounds a single line of a text resource
const maxLineSize = 16 << 20

func writeText(w io.Writer, r io.Reader, opts ContentOptions) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)

	bw := bufio.NewWriter(w)
	substituted := 0

	for scanner.Scan() {
		out, ok := substitute(scanner.Text(), opts)
		if ok {
			substituted++
		}

		if _, err := bw.WriteString(out); err != nil {
			return substituted, err
		}
	}

	if err := scanner.Err(); err != nil {
		return substituted, fmt.Errorf("reading text: %w", err)
	}

	return substituted, bw.Flush()
}

// scanLines is a bufio.SplitFunc ending lines at "\n", "\r" or "\r\n".
// Terminators are dropped and a final line without one is still returned.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}

		// a "\r" at the end of the buffer may be followed by "\n"
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}

		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}

		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// substitute returns the text written for a single line. Lines that are
// not tags are returned unchanged. A tag line yields its substitution,
// followed by the original line unless opts.ReplaceTags is set.
func substitute(line string, opts ContentOptions) (string, bool) {
	var replacement string

	switch strings.TrimSpace(line) {
	case DateTag:
		replacement = opts.now().Format(DateLayout)
	case ServerTag:
		replacement = ServerBanner
	default:
		return line, false
	}

	if opts.ReplaceTags {
		return replacement, true
	}

	return replacement + line, true
}
