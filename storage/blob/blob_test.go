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
	"path/filepath"
	"testing"

	"github.com/gorse-io/tabular/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs write, list, read and remove against an empty store.
func testStore(t *testing.T, store Store) {
	// write files
	for _, name := range []string{"x_train.arrow.zst", "nested/y_test.arrow.zst"} {
		w, err := store.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("hello " + name))
		assert.NoError(t, err)
		require.NoError(t, w.Close())
	}

	// list files
	names, err := store.List()
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"x_train.arrow.zst", "nested/y_test.arrow.zst"}, names)

	// read file
	r, err := store.Open("nested/y_test.arrow.zst")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello nested/y_test.arrow.zst", string(data))
	assert.NoError(t, r.Close())

	// overwrite file
	w, err := store.Create("x_train.arrow.zst")
	require.NoError(t, err)
	_, err = w.Write([]byte("replaced"))
	assert.NoError(t, err)
	require.NoError(t, w.Close())
	r, err = store.Open("x_train.arrow.zst")
	require.NoError(t, err)
	data, err = io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
	assert.NoError(t, r.Close())

	// abort keeps the existing file
	w, err = store.Create("x_train.arrow.zst")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	assert.NoError(t, err)
	assert.NoError(t, Abort(w, errors.New("encode failed")))
	r, err = store.Open("x_train.arrow.zst")
	require.NoError(t, err)
	data, err = io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
	assert.NoError(t, r.Close())
	names, err = store.List()
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"x_train.arrow.zst", "nested/y_test.arrow.zst"}, names)

	// remove files
	assert.NoError(t, store.Remove("x_train.arrow.zst"))
	assert.NoError(t, store.Remove("nested/y_test.arrow.zst"))
	names, err = store.List()
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewStore(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Snapshot.Dir = filepath.Join(t.TempDir(), "processed")
	store, err := NewStore(cfg)
	assert.NoError(t, err)
	assert.IsType(t, &POSIX{}, store)

	cfg.Snapshot.Store = "ftp"
	_, err = NewStore(cfg)
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestUploadWriter(t *testing.T) {
	// upload succeeds
	var received []byte
	w := newUploadWriter(func(r io.Reader) error {
		var err error
		received, err = io.ReadAll(r)
		return err
	})
	_, err := w.Write([]byte("hello world"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.Equal(t, "hello world", string(received))

	// upload fails before reading everything
	w = newUploadWriter(func(r io.Reader) error {
		return errors.New("connection reset")
	})
	_, err = w.Write([]byte("hello world"))
	assert.Error(t, err)
	assert.ErrorContains(t, w.Close(), "connection reset")

	// aborted upload sees the error instead of EOF
	var uploadErr error
	w = newUploadWriter(func(r io.Reader) error {
		_, uploadErr = io.ReadAll(r)
		return uploadErr
	})
	_, err = w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, w.Abort(errors.New("encode failed")))
	assert.ErrorContains(t, uploadErr, "encode failed")
}

func TestAbortUnsupported(t *testing.T) {
	_, w := io.Pipe()
	assert.True(t, errors.Is(Abort(w, nil), errors.NotSupported))
}
