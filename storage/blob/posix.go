// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
)

// POSIX stores files under a local directory.
type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

// Open a file for reading.
func (p *POSIX) Open(name string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(p.dir, name))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return file, nil
}

// Create a file for writing. Missing parent directories are created. Data
// goes to a temporary file in the same directory, which replaces the named
// file on Close.
func (p *POSIX) Create(name string) (io.WriteCloser, error) {
	fullPath := filepath.Join(p.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, errors.Trace(err)
	}
	file, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*"+tempSuffix)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = file.Chmod(0644); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, errors.Trace(err)
	}
	return &posixWriter{File: file, path: fullPath}, nil
}

const tempSuffix = ".tmp"

type posixWriter struct {
	*os.File
	path string
}

func (w *posixWriter) Close() error {
	if err := w.File.Close(); err != nil {
		_ = os.Remove(w.File.Name())
		return errors.Trace(err)
	}
	if err := os.Rename(w.File.Name(), w.path); err != nil {
		_ = os.Remove(w.File.Name())
		return errors.Trace(err)
	}
	return nil
}

// Abort removes the temporary file.
func (w *posixWriter) Abort(error) error {
	_ = w.File.Close()
	return errors.Trace(os.Remove(w.File.Name()))
}

// List files under the directory, recursively, as slash separated relative names.
func (p *POSIX) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || (strings.HasPrefix(d.Name(), ".") && strings.HasSuffix(d.Name(), tempSuffix)) {
			return nil
		}
		name, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(name))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return names, errors.Trace(err)
}

func (p *POSIX) Remove(name string) error {
	return errors.Trace(os.Remove(filepath.Join(p.dir, name)))
}
