package simz

import "os"

// File is the handle a platform's successful Open returns. In
// simulation it wraps a genuinely opened host file — the
// simulation-of-I/O approximation still touches the host filesystem;
// only timing and failures are virtual.
type File struct {
	f    *os.File
	path string
}

func newFile(f *os.File, path string) *File {
	return &File{f: f, path: path}
}

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// Read reads from the underlying host file.
func (f *File) Read(p []byte) (int, error) { return f.f.Read(p) }

// Close closes the underlying host file.
func (f *File) Close() error { return f.f.Close() }
