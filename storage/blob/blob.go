// Copyright 2024 gorse Project Authors
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

	"github.com/gorse-io/tabular/config"
	"github.com/juju/errors"
)

// Store is a flat namespace of files.
type Store interface {
	// Open a file for reading.
	Open(name string) (io.ReadCloser, error)
	// Create a file for writing, replacing any existing one. The file is
	// complete once Close returns without error. Pass the writer to Abort
	// instead of closing it to keep the existing file.
	Create(name string) (io.WriteCloser, error)
	// List names of all files.
	List() ([]string, error)
	// Remove a file.
	Remove(name string) error
}

// NewStore creates the store selected by the snapshot config.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Snapshot.Store {
	case config.StorePOSIX:
		return NewPOSIX(cfg.Snapshot.Dir), nil
	case config.StoreS3:
		return NewS3(cfg.S3, cfg.Snapshot.Dir)
	case config.StoreGCS:
		return NewGCS(cfg.GCS, cfg.Snapshot.Dir)
	case config.StoreAzure:
		return NewAzureBlob(cfg.Azure, cfg.Snapshot.Dir)
	default:
		return nil, errors.NotSupportedf("snapshot store %q", cfg.Snapshot.Store)
	}
}

type aborter interface {
	Abort(err error) error
}

// Abort discards a file being written by a writer from Store.Create. An
// existing file with the same name is left as it was.
func Abort(w io.WriteCloser, err error) error {
	if a, ok := w.(aborter); ok {
		return errors.Trace(a.Abort(err))
	}
	return errors.NotSupportedf("abort %T", w)
}

// uploadWriter feeds an upload running in another goroutine. Close waits for
// the upload to finish and returns its error.
type uploadWriter struct {
	*io.PipeWriter
	done chan error
}

func newUploadWriter(upload func(r io.Reader) error) *uploadWriter {
	pr, pw := io.Pipe()
	w := &uploadWriter{PipeWriter: pw, done: make(chan error, 1)}
	go func() {
		err := upload(pr)
		// unblock the writer if the upload stopped early
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *uploadWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(<-w.done)
}

// Abort fails the upload with err so that nothing is committed.
func (w *uploadWriter) Abort(err error) error {
	if err == nil {
		err = errors.New("upload aborted")
	}
	_ = w.PipeWriter.CloseWithError(err)
	<-w.done
	return nil
}
