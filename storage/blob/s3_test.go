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
	"os"
	"testing"

	"github.com/gorse-io/tabular/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	endpoint        = os.Getenv("S3_ENDPOINT")
	accessKeyID     = os.Getenv("S3_ACCESS_KEY_ID")
	secretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
)

func TestS3(t *testing.T) {
	if endpoint == "" || accessKeyID == "" || secretAccessKey == "" {
		t.Skip("S3 environment variables are not set, skipping S3 tests")
	}

	// create client
	client, err := NewS3(config.S3Config{
		Endpoint:        endpoint,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		Bucket:          "tabular-test",
		Prefix:          "blob",
	}, "processed")
	require.NoError(t, err)

	// create bucket if not exists
	exists, err := client.Client.BucketExists(context.Background(), client.bucket)
	require.NoError(t, err)
	if !exists {
		err = client.Client.MakeBucket(context.Background(), client.bucket, minio.MakeBucketOptions{})
		assert.NoError(t, err)
	}

	testStore(t, client)

	// open an object that does not exist
	_, err = client.Open("missing")
	assert.Error(t, err)
}
