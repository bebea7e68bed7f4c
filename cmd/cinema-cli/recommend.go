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
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/engine"
	"github.com/gorse-io/cinema/logics"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	cliCommand.AddCommand(recommendCommand, statsCommand, usersCommand)
	recommendCommand.Flags().IntP("user", "u", 0, "identifier of the user")
	recommendCommand.Flags().StringP("genre", "g", "", "genre in English or Korean")
	recommendCommand.Flags().IntP("n", "n", 0, "number of recommended movies (default from config)")
	_ = recommendCommand.MarkFlagRequired("user")
	statsCommand.Flags().IntP("user", "u", 0, "identifier of the user")
	_ = statsCommand.MarkFlagRequired("user")
	usersCommand.Flags().IntP("n", "n", 0, "number of listed users (default from config)")
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend movies to a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, conf, err := openEngine(cmd)
		if err != nil {
			return err
		}
		userId, _ := cmd.Flags().GetInt("user")
		genre, _ := cmd.Flags().GetString("genre")
		n, _ := cmd.Flags().GetInt("n")
		if !cmd.Flags().Changed("n") {
			n = conf.Recommend.DefaultN
		}
		stats, err := e.Stats(userId)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err = renderStats(out, userId, stats); err != nil {
			return errors.Trace(err)
		}
		var scores []logics.Score
		if genre == "" {
			_, _ = fmt.Fprintf(out, "\nTop %d movies for user %d\n", n, userId)
			scores, err = e.RecommendAll(userId, n)
		} else {
			_, _ = fmt.Fprintf(out, "\nTop %d %s movies for user %d\n", n, genre, userId)
			scores, err = e.RecommendByCategory(userId, genre, n)
		}
		if err != nil {
			return err
		}
		return renderRecommendations(out, e, scores)
	},
}

var statsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Show rating statistics of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := openEngine(cmd)
		if err != nil {
			return err
		}
		userId, _ := cmd.Flags().GetInt("user")
		stats, err := e.Stats(userId)
		if err != nil {
			return err
		}
		return renderStats(cmd.OutOrStdout(), userId, stats)
	},
}

var usersCommand = &cobra.Command{
	Use:   "users",
	Short: "List known users",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, conf, err := openEngine(cmd)
		if err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt("n")
		if !cmd.Flags().Changed("n") {
			n = conf.Recommend.UserListSize
		}
		userIds, total := e.KnownUserIds(n)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d users: %s\n", len(userIds), total,
			strings.Join(lo.Map(userIds, func(id int, _ int) string { return strconv.Itoa(id) }), ", "))
		return nil
	},
}

func renderStats(out io.Writer, userId int, stats logics.Stats) error {
	std := "-"
	if !math.IsNaN(stats.StdDev) {
		std = fmt.Sprintf("%.2f", stats.StdDev)
	}
	favorites := lo.Map(stats.Favorites, func(c logics.GenreCount, _ int) string {
		return fmt.Sprintf("%s(%d)", c.Genre.Korean(), c.Count)
	})
	table := tablewriter.NewWriter(out)
	table.Header("statistic", "value")
	rows := [][]string{
		{"user", strconv.Itoa(userId)},
		{"total ratings", strconv.Itoa(stats.Count)},
		{"average rating", fmt.Sprintf("%.2f", stats.Mean)},
		{"rating std", std},
		{"favorite genres", strings.Join(favorites, ", ")},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func renderRecommendations(out io.Writer, e *engine.Engine, scores []logics.Score) error {
	table := tablewriter.NewWriter(out)
	table.Header("rank", "movie", "title", "score", "release date", "genres")
	rank := 0
	for _, score := range scores {
		item, ok := e.CatalogItem(score.Id)
		if !ok {
			continue
		}
		rank++
		releaseDate := catalog.FormatReleaseDate(item.ReleaseDate)
		if releaseDate == "" {
			releaseDate = "Unknown"
		}
		genres := lo.Map(item.CategoryFlags(), func(p catalog.LabelPair, _ int) string { return p.Korean })
		if err := table.Append([]string{
			strconv.Itoa(rank),
			strconv.Itoa(item.Id),
			item.Title,
			fmt.Sprintf("%.2f", score.Score),
			releaseDate,
			strings.Join(genres, ", "),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}
