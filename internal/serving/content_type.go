package serving

import "strings"

// DefaultContentType is used for every path not matching an image suffix
const DefaultContentType = "text/html"

// contentTypes is matched in order, case-sensitively, against the end of the
// request path
var contentTypes = []struct {
	suffix      string
	contentType string
}{
	{".jpg", "image/jpg"},
	{".gif", "image/gif"},
	{".png", "image/png"},
	{".ico", "image/x-icon"},
}

// ContentType maps a request path to a MIME type using its suffix. The
// whole path is matched, so "/img.png" and "img.png" give the same result.
func ContentType(path string) string {
	for _, ct := range contentTypes {
		if strings.HasSuffix(path, ct.suffix) {
			return ct.contentType
		}
	}

	return DefaultContentType
}

// IsImage reports whether contentType is streamed as raw bytes
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
