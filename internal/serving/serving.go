package serving

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	errNotDirectory       = errors.New("document root is not a directory")
	errFileNotFound       = errors.New("file not found")
	errNotRegularFile     = errors.New("not a regular file")
	errFileNotInPublicDir = errors.New("file found outside of document root")
)

// Status is the response status derived from a Resource
type Status int

const (
	// StatusOK is sent for existing regular files
	StatusOK Status = 200
	// StatusNotFound is sent for everything else
	StatusNotFound Status = 404
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "200 OK"
	default:
		return "404 Not Found"
	}
}

// Resource is a request path resolved against a Root. It is computed once
// per connection and never changes afterwards.
type Resource struct {
	// Path is the path exactly as it appeared in the request line
	Path string
	// FullPath is the location on disk, empty when Path is unset
	FullPath string
	// Exists is true only when FullPath is a regular file
	Exists      bool
	ContentType string
}

// Status returns StatusOK for existing files and StatusNotFound otherwise
func (r Resource) Status() Status {
	if r.Exists {
		return StatusOK
	}

	return StatusNotFound
}

// Option configures a Root
type Option func(*Root)

// WithConfinement makes paths that resolve outside of the document root,
// through ".." segments or symlinks, resolve as not found
func WithConfinement(confine bool) Option {
	return func(r *Root) {
		r.confine = confine
	}
}

// Root is a read-only view of the filesystem below a document root. A
// leading "/" in a request path denotes the root itself.
type Root struct {
	dir     string
	confine bool
}

// NewRoot returns a Root for dir, which must be an existing directory
func NewRoot(dir string, opts ...Option) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving document root %q: %w", dir, err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening document root: %w", err)
	}

	if !fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, errNotDirectory)
	}

	r := &Root{dir: abs}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Dir returns the absolute document root
func (r *Root) Dir() string {
	return r.dir
}

// Resolve resolves a request path to a Resource. The empty path is the
// unset path and never exists.
func (r *Root) Resolve(path string) Resource {
	res := Resource{
		Path:        path,
		ContentType: ContentType(path),
	}

	if path == "" {
		return res
	}

	res.FullPath = r.fullPath(path)

	if err := r.checkFile(res.FullPath); err == nil {
		res.Exists = true
	}

	return res
}

// fullPath strips a single leading separator and appends the rest to the
// document root. filepath.Join is not used as it cleans the path, and the
// path must be looked up as supplied by the client, including "..".
func (r *Root) fullPath(path string) string {
	rel := strings.TrimPrefix(path, "/")

	return strings.TrimSuffix(r.dir, "/") + "/" + rel
}

func (r *Root) checkFile(fullPath string) error {
	if r.confine {
		resolved, err := filepath.EvalSymlinks(fullPath)
		if err != nil {
			return errFileNotFound
		}

		// EvalSymlinks also cleans away any ".." segments
		if !r.contains(resolved) {
			return errFileNotInPublicDir
		}

		fullPath = resolved
	}

	fi, err := os.Stat(fullPath)
	if err != nil {
		return errFileNotFound
	}

	// Directories, devices and sockets are all reported as not found
	if !fi.Mode().IsRegular() {
		return errNotRegularFile
	}

	return nil
}

func (r *Root) contains(path string) bool {
	root, err := filepath.EvalSymlinks(r.dir)
	if err != nil {
		return false
	}

	return path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/")
}
