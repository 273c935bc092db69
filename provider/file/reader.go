// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package file

import (
	"io"
	"io/fs"
	"os"
	"sync"
)

// Reader is an io.Reader which opens its file on first read.
type Reader struct {
	path string
	fs   fs.FS

	openOnce sync.Once
	openErr  error
	file     fs.File
}

// NewReader configures a Reader for the file at path within fsys.
func NewReader(fsys fs.FS, path string) *Reader {
	return &Reader{
		path: path,
		fs:   fsys,
	}
}

// Read implements the io.Reader interface.
func (r *Reader) Read(b []byte) (int, error) {
	r.openOnce.Do(func() {
		r.file, r.openErr = r.fs.Open(r.path)
	})
	if r.openErr != nil {
		return 0, r.openErr
	}
	return r.file.Read(b)
}

// Close implements the io.Closer interface.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}

// osFS resolves names the way os.Open does, so relative and absolute
// paths both work without an explicit fs.FS.
type osFS struct{}

func (osFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

var _ io.ReadCloser = (*Reader)(nil)
