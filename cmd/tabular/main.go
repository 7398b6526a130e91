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
	"fmt"

	"github.com/gorse-io/tabular/base/log"
	"github.com/gorse-io/tabular/cmd/version"
	"github.com/gorse-io/tabular/config"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "tabular",
		Short:         "Prepare tabular datasets for training.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
				log.CloseLogger()
				return
			}
			debug, _ := cmd.Flags().GetBool("debug")
			log.SetLogger(cmd.Flags(), debug)
		},
	}
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().BoolP("quiet", "q", false, "only log fatal errors")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.AddCommand(newPrepareCommand(), newInspectCommand(), newVersionCommand())
	return rootCommand
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
		},
	}
}

// loadConfig loads the configuration file given by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
