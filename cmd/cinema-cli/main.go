// Copyright 2026 gorse Project Authors
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
	"context"
	"fmt"

	"github.com/gorse-io/cinema/base/log"
	"github.com/gorse-io/cinema/cmd/version"
	"github.com/gorse-io/cinema/config"
	"github.com/gorse-io/cinema/engine"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cliCommand = &cobra.Command{
	Use:   "cinema-cli",
	Short: "Command line console of the movie recommender.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			log.SetLogger(cmd.Flags(), debug)
		} else {
			log.CloseLogger()
		}
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of cinema",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
	},
}

func init() {
	log.AddFlags(cliCommand.PersistentFlags())
	cliCommand.PersistentFlags().Bool("debug", false, "show logs of the recommender")
	cliCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	cliCommand.AddCommand(versionCommand)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

func openEngine(cmd *cobra.Command) (*engine.Engine, *config.Config, error) {
	conf, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Initializing recommender...")
	e, err := engine.Open(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return e, conf, nil
}

func main() {
	if err := cliCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
