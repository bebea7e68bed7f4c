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
	"io"

	"github.com/gorse-io/cinema/base/log"
	"github.com/gorse-io/cinema/common/parallel"
	"github.com/gorse-io/cinema/storage"
	"github.com/gorse-io/cinema/storage/data"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	cliCommand.AddCommand(importCommand)
	importCommand.Flags().String("source", storage.MovieLensPrefix+"ml-100k", "data store to import from")
	importCommand.Flags().Int("batch-size", 1000, "number of rows per insert")
	importCommand.Flags().IntP("jobs", "j", 1, "number of concurrent inserts")
}

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Import ratings and movies into the configured SQL data store",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sourcePath, _ := cmd.Flags().GetString("source")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		jobs, _ := cmd.Flags().GetInt("jobs")
		source, err := data.Open(sourcePath, "")
		if err != nil {
			return errors.Trace(err)
		}
		defer source.Close()
		target, err := data.Open(conf.Database.DataStore, conf.Database.TablePrefix, conf.Database.StorageOptions()...)
		if err != nil {
			return errors.Trace(err)
		}
		defer target.Close()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return importData(ctx, source, target, batchSize, jobs, cmd.ErrOrStderr())
	},
}

func importData(ctx context.Context, source, target data.Database, batchSize, jobs int, out io.Writer) error {
	if err := source.Init(); err != nil {
		return errors.Trace(err)
	}
	if err := target.Init(); err != nil {
		return errors.Trace(err)
	}
	movies, err := source.LoadMovies(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if err = insertBatches(ctx, "import movies", movies, batchSize, jobs, target.BatchInsertMovies, out); err != nil {
		return errors.Trace(err)
	}
	ratings, err := source.LoadRatings(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if err = insertBatches(ctx, "import ratings", ratings, batchSize, jobs, target.BatchInsertRatings, out); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("import complete", zap.Int("n_movies", len(movies)), zap.Int("n_ratings", len(ratings)))
	return nil
}

func insertBatches[T any](ctx context.Context, description string, values []T, batchSize, jobs int,
	insert func(context.Context, []T) error, out io.Writer) error {
	if len(values) == 0 {
		return nil
	}
	batchSize = max(batchSize, 1)
	batches := parallel.Split(values, (len(values)+batchSize-1)/batchSize)
	bar := progressbar.NewOptions(len(values),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount())
	err := parallel.Parallel(ctx, len(batches), max(jobs, 1), func(_, jobId int) error {
		if err := insert(ctx, batches[jobId]); err != nil {
			return errors.Trace(err)
		}
		return bar.Add(len(batches[jobId]))
	})
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(bar.Finish())
}
