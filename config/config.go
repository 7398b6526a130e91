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
package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	StorePOSIX = "posix"
	StoreS3    = "s3"
	StoreGCS   = "gcs"
	StoreAzure = "azure"
)

// Config is the configuration for dataset preparation.
type Config struct {
	Dataset  DatasetConfig   `mapstructure:"dataset"`
	Snapshot SnapshotConfig  `mapstructure:"snapshot"`
	S3       S3Config        `mapstructure:"s3"`
	GCS      GCSConfig       `mapstructure:"gcs"`
	Azure    AzureBlobConfig `mapstructure:"azure"`
}

// DatasetConfig is the configuration for loading and splitting.
type DatasetConfig struct {
	TargetColumn string  `mapstructure:"target_column" validate:"required"`
	TestSize     float64 `mapstructure:"test_size" validate:"gt=0,lt=1"`
	// Seed makes splits reproducible. A time based seed is used if nil.
	Seed *int64 `mapstructure:"seed"`
}

// SnapshotConfig is the configuration for storing snapshots.
type SnapshotConfig struct {
	Store string `mapstructure:"store" validate:"oneof=posix s3 gcs azure"`
	Dir   string `mapstructure:"dir" validate:"required"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	Container        string `mapstructure:"container"`
	Prefix           string `mapstructure:"prefix"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			TargetColumn: "loan_status",
			TestSize:     0.2,
		},
		Snapshot: SnapshotConfig{
			Store: StorePOSIX,
			Dir:   "data/processed",
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.target_column", defaultConfig.Dataset.TargetColumn)
	v.SetDefault("dataset.test_size", defaultConfig.Dataset.TestSize)
	// [snapshot]
	v.SetDefault("snapshot.store", defaultConfig.Snapshot.Store)
	v.SetDefault("snapshot.dir", defaultConfig.Snapshot.Dir)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"dataset.target_column", "TABULAR_DATASET_TARGET_COLUMN"},
	{"dataset.test_size", "TABULAR_DATASET_TEST_SIZE"},
	{"dataset.seed", "TABULAR_DATASET_SEED"},
	{"snapshot.store", "TABULAR_SNAPSHOT_STORE"},
	{"snapshot.dir", "TABULAR_SNAPSHOT_DIR"},
	{"s3.endpoint", "S3_ENDPOINT"},
	{"s3.access_key_id", "S3_ACCESS_KEY_ID"},
	{"s3.secret_access_key", "S3_SECRET_ACCESS_KEY"},
	{"s3.bucket", "TABULAR_S3_BUCKET"},
	{"s3.prefix", "TABULAR_S3_PREFIX"},
	{"gcs.bucket", "TABULAR_GCS_BUCKET"},
	{"gcs.prefix", "TABULAR_GCS_PREFIX"},
	{"gcs.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS"},
	{"azure.connection_string", "AZURE_STORAGE_CONNECTION_STRING"},
	{"azure.container", "TABULAR_AZURE_CONTAINER"},
	{"azure.prefix", "TABULAR_AZURE_PREFIX"},
}

// LoadConfig loads configuration from a TOML file and environment variables.
// The file is optional if path is empty.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if path != "" {
		// check if file exists
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Trace(err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks the configuration. Messages are in English.
func (config *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterStructValidation(validateStore, Config{})
	translator, _ := ut.New(en.New()).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return errors.Trace(err)
	}

	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.Trace(err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, fieldError.Translate(translator))
	}
	return errors.NotValidf("config: %s", strings.Join(messages, "; "))
}

// validateStore requires the settings of the selected snapshot store.
func validateStore(sl validator.StructLevel) {
	config := sl.Current().Interface().(Config)
	switch config.Snapshot.Store {
	case StoreS3:
		for _, field := range []struct{ name, value string }{
			{"endpoint", config.S3.Endpoint},
			{"access_key_id", config.S3.AccessKeyID},
			{"secret_access_key", config.S3.SecretAccessKey},
			{"bucket", config.S3.Bucket},
		} {
			if field.value == "" {
				sl.ReportError(field.value, field.name, field.name, "required", "")
			}
		}
	case StoreGCS:
		if config.GCS.Bucket == "" {
			sl.ReportError(config.GCS.Bucket, "bucket", "Bucket", "required", "")
		}
	case StoreAzure:
		if config.Azure.Container == "" {
			sl.ReportError(config.Azure.Container, "container", "Container", "required", "")
		}
	}
}
