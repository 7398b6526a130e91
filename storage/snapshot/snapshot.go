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
package snapshot

import (
	"path/filepath"

	"github.com/gorse-io/tabular/base/log"
	"github.com/gorse-io/tabular/dataset"
	"github.com/gorse-io/tabular/storage/blob"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Ext is the file extension of snapshots.
const Ext = ".arrow.zst"

// Serialize writes data to a local file. Parent directories are created and
// an existing file is overwritten.
func Serialize(data dataset.Data, path string) error {
	store := blob.NewPOSIX(filepath.Dir(path))
	if err := SerializeTo(store, filepath.Base(path), data); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("serialize data", zap.String("path", path))
	return nil
}

// Deserialize reads data from a local file written by Serialize.
func Deserialize(path string) (dataset.Data, error) {
	return DeserializeFrom(blob.NewPOSIX(filepath.Dir(path)), filepath.Base(path))
}

// SerializeTo writes data to a file in the store. On failure an existing
// file with the same name is kept.
func SerializeTo(store blob.Store, name string, data dataset.Data) error {
	if _, err := kindOf(data); err != nil {
		return errors.Trace(err)
	}
	w, err := store.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	if err = Encode(w, data); err != nil {
		_ = blob.Abort(w, err)
		return errors.Trace(err)
	}
	return errors.Trace(w.Close())
}

// DeserializeFrom reads data from a file in the store.
func DeserializeFrom(store blob.Store, name string) (dataset.Data, error) {
	r, err := store.Open(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	data, err := Decode(r)
	if err != nil {
		return nil, errors.Annotatef(err, "snapshot %s", name)
	}
	return data, nil
}

// DeserializeFrame reads a local file and checks that it holds a frame.
func DeserializeFrame(path string) (*dataset.Frame, error) {
	data, err := Deserialize(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	frame, ok := data.(*dataset.Frame)
	if !ok {
		data.Release()
		return nil, errors.NotSupportedf("%T in %s, expected a frame", data, path)
	}
	return frame, nil
}

// DeserializeSeries reads a local file and checks that it holds a series.
func DeserializeSeries(path string) (*dataset.Series, error) {
	data, err := Deserialize(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	series, ok := data.(*dataset.Series)
	if !ok {
		data.Release()
		return nil, errors.NotSupportedf("%T in %s, expected a series", data, path)
	}
	return series, nil
}
