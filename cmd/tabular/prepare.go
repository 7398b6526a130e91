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
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorse-io/tabular/base/log"
	"github.com/gorse-io/tabular/config"
	"github.com/gorse-io/tabular/dataset"
	"github.com/gorse-io/tabular/storage/blob"
	"github.com/gorse-io/tabular/storage/snapshot"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const ManifestFile = "manifest.json"

// Manifest describes the snapshots written by one run of prepare.
type Manifest struct {
	RunID     string           `json:"run_id"`
	CreatedAt time.Time        `json:"created_at"`
	Input     string           `json:"input"`
	Target    string           `json:"target"`
	TestSize  float64          `json:"test_size"`
	Seed      *int64           `json:"seed,omitempty"`
	Shapes    map[string][]int `json:"shapes"`
}

func newPrepareCommand() *cobra.Command {
	prepareCommand := &cobra.Command{
		Use:   "prepare",
		Short: "Split a CSV file into train and test snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return errors.Trace(err)
			}
			// flags override the configuration file
			if cmd.Flags().Changed("target") {
				conf.Dataset.TargetColumn, _ = cmd.Flags().GetString("target")
			}
			if cmd.Flags().Changed("test-size") {
				conf.Dataset.TestSize, _ = cmd.Flags().GetFloat64("test-size")
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt64("seed")
				conf.Dataset.Seed = &seed
			}
			if cmd.Flags().Changed("output") {
				conf.Snapshot.Dir, _ = cmd.Flags().GetString("output")
			}
			if err = conf.Validate(); err != nil {
				return errors.Trace(err)
			}
			input, _ := cmd.Flags().GetString("input")
			store, err := blob.NewStore(conf)
			if err != nil {
				return errors.Trace(err)
			}
			manifest, err := prepare(conf, input, store, cmd.ErrOrStderr())
			if err != nil {
				return errors.Trace(err)
			}
			return printManifest(cmd.OutOrStdout(), manifest)
		},
	}
	prepareCommand.Flags().StringP("input", "i", "", "path of the CSV file")
	prepareCommand.Flags().String("target", dataset.DefaultTarget, "name of the target column")
	prepareCommand.Flags().Float64("test-size", 0.2, "proportion of rows in the test set")
	prepareCommand.Flags().Int64("seed", 0, "seed of the random generator")
	prepareCommand.Flags().StringP("output", "o", "", "directory of snapshots")
	_ = prepareCommand.MarkFlagRequired("input")
	return prepareCommand
}

// prepare loads the input, splits it and writes the four snapshots and the manifest to the store.
func prepare(conf *config.Config, input string, store blob.Store, progress io.Writer) (*Manifest, error) {
	data, err := loadWithProgress(input, progress)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer data.Release()
	x, y, err := dataset.SplitFeatureTarget(data, conf.Dataset.TargetColumn)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer x.Release()
	defer y.Release()
	var opts []dataset.SplitOption
	if conf.Dataset.Seed != nil {
		opts = append(opts, dataset.WithSeed(*conf.Dataset.Seed))
	}
	xTrain, xTest, yTrain, yTest, err := dataset.SplitTrainTest(x, y, conf.Dataset.TestSize, opts...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer xTrain.Release()
	defer xTest.Release()
	defer yTrain.Release()
	defer yTest.Release()

	manifest := &Manifest{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Input:     input,
		Target:    conf.Dataset.TargetColumn,
		TestSize:  conf.Dataset.TestSize,
		Seed:      conf.Dataset.Seed,
		Shapes:    make(map[string][]int),
	}
	for _, output := range []struct {
		name string
		data dataset.Data
	}{
		{"x_train", xTrain},
		{"x_test", xTest},
		{"y_train", yTrain},
		{"y_test", yTest},
	} {
		if err = snapshot.SerializeTo(store, output.name+snapshot.Ext, output.data); err != nil {
			return nil, errors.Annotatef(err, "write %s", output.name)
		}
		manifest.Shapes[output.name] = shape(output.data)
		log.Logger().Info("serialize data", zap.String("name", output.name+snapshot.Ext))
	}
	if err = writeManifest(store, manifest); err != nil {
		return nil, errors.Trace(err)
	}
	return manifest, nil
}

func loadWithProgress(path string, progress io.Writer) (*dataset.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, errors.Trace(err)
	}
	bar := progressbar.NewOptions64(info.Size(),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Loading "+filepath.Base(path)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(progress)
		}))
	reader := progressbar.NewReader(file, bar)
	data, err := dataset.Load(bufio.NewReader(&reader))
	if err != nil {
		return nil, errors.Annotatef(err, "load %s", path)
	}
	_ = bar.Finish()
	return data, nil
}

func shape(data dataset.Data) []int {
	if frame, ok := data.(*dataset.Frame); ok {
		return []int{frame.Len(), frame.Width()}
	}
	return []int{data.Len()}
}

func writeManifest(store blob.Store, manifest *Manifest) error {
	w, err := store.Create(ManifestFile)
	if err != nil {
		return errors.Trace(err)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err = encoder.Encode(manifest); err != nil {
		_ = blob.Abort(w, err)
		return errors.Trace(err)
	}
	return errors.Trace(w.Close())
}

func printManifest(w io.Writer, manifest *Manifest) error {
	_, _ = fmt.Fprintf(w, "Run %s\n", manifest.RunID)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Snapshot", "Shape"})
	for _, name := range []string{"x_train", "x_test", "y_train", "y_test"} {
		if err := table.Append([]string{name + snapshot.Ext, fmt.Sprint(manifest.Shapes[name])}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
