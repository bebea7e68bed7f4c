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
	"github.com/gorse-io/cinema/catalog"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	cliCommand.AddCommand(genresCommand)
}

var genresCommand = &cobra.Command{
	Use:   "genres",
	Short: "List supported genres",
	RunE: func(cmd *cobra.Command, args []string) error {
		vocabulary := catalog.CategoryVocabulary()
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("english", "korean")
		for i := range vocabulary.English {
			if err := table.Append([]string{vocabulary.English[i], vocabulary.Korean[i]}); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(table.Render())
	},
}
