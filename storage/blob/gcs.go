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
	"context"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gorse-io/tabular/config"
	"github.com/juju/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(cfg config.GCSConfig, prefix string) (*GCS, error) {
	var opts []option.ClientOption
	if endpoint := os.Getenv("GCS_EMULATOR_ENDPOINT"); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewGCSWithClient(client, cfg.Bucket, path.Join(cfg.Prefix, prefix)), nil
}

// NewGCSWithClient creates a GCS store on an existing client.
func NewGCSWithClient(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (g *GCS) object(name string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(path.Join(g.prefix, name))
}

func (g *GCS) Open(name string) (io.ReadCloser, error) {
	r, err := g.object(name).NewReader(context.Background())
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r, nil
}

func (g *GCS) Create(name string) (io.WriteCloser, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &gcsWriter{Writer: g.object(name).NewWriter(ctx), cancel: cancel}, nil
}

// gcsWriter commits the object on Close. Canceling the context before Close
// drops the upload.
type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	return errors.Trace(w.Writer.Close())
}

func (w *gcsWriter) Abort(error) error {
	w.cancel()
	_ = w.Writer.Close()
	return nil
}

func (g *GCS) List() ([]string, error) {
	var names []string
	prefix := g.prefix
	if prefix != "" {
		prefix += "/"
	}
	it := g.client.Bucket(g.bucket).Objects(context.Background(), &storage.Query{
		Prefix: prefix,
	})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		names = append(names, strings.TrimPrefix(attrs.Name, prefix))
	}
	return names, nil
}

func (g *GCS) Remove(name string) error {
	return errors.Trace(g.object(name).Delete(context.Background()))
}
