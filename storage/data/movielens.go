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
package data

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorse-io/cinema/base"
	"github.com/gorse-io/cinema/base/log"
	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

const (
	ratingsFile = "u.data"
	moviesFile  = "u.item"
	// id, title, release date, video release date, IMDb URL and genre flags
	numMovieColumns = 5 + catalog.NumGenres
)

// MovieLens reads the MovieLens 100K layout from a directory. It is read-only.
type MovieLens struct {
	dir string
}

func NewMovieLens(dir string) *MovieLens {
	return &MovieLens{dir: dir}
}

// Init checks that the directory holds the rating and movie files.
func (m *MovieLens) Init() error {
	for _, name := range []string{ratingsFile, moviesFile} {
		if _, err := os.Stat(filepath.Join(m.dir, name)); err != nil {
			if os.IsNotExist(err) {
				return errors.NotFoundf("%s in %s", name, m.dir)
			}
			return errors.Trace(err)
		}
	}
	return nil
}

func (m *MovieLens) Close() error {
	return nil
}

// LoadRatings reads tab separated (user id, item id, rating, timestamp) lines.
func (m *MovieLens) LoadRatings(ctx context.Context) ([]dataset.Rating, error) {
	path := filepath.Join(m.dir, ratingsFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("ratings file %s", path)
		}
		return nil, errors.Trace(err)
	}
	defer file.Close()
	var (
		ratings  []dataset.Rating
		parseErr error
	)
	err = base.ReadLines(bufio.NewScanner(file), "\t", func(i int, fields []string) bool {
		if err := ctx.Err(); err != nil {
			parseErr = errors.Trace(err)
			return false
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		if len(fields) < 4 {
			parseErr = errors.NotValidf("line %d of %s", i+1, path)
			return false
		}
		values := make([]int64, 4)
		for j := range values {
			value, err := strconv.ParseInt(strings.TrimSpace(fields[j]), 10, 64)
			if err != nil {
				parseErr = errors.Annotatef(err, "line %d of %s", i+1, path)
				return false
			}
			values[j] = value
		}
		rating := dataset.Rating{
			UserId:    int(values[0]),
			ItemId:    int(values[1]),
			Value:     int(values[2]),
			Timestamp: values[3],
		}
		if err := rating.Validate(); err != nil {
			parseErr = errors.Annotatef(err, "line %d of %s", i+1, path)
			return false
		}
		ratings = append(ratings, rating)
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return ratings, nil
}

// LoadMovies reads latin-1 encoded, pipe separated movie lines.
func (m *MovieLens) LoadMovies(ctx context.Context) ([]catalog.Item, error) {
	path := filepath.Join(m.dir, moviesFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("movies file %s", path)
		}
		return nil, errors.Trace(err)
	}
	defer file.Close()
	var (
		movies   []catalog.Item
		parseErr error
	)
	reader := charmap.ISO8859_1.NewDecoder().Reader(file)
	err = base.ReadLines(bufio.NewScanner(reader), "|", func(i int, fields []string) bool {
		if err := ctx.Err(); err != nil {
			parseErr = errors.Trace(err)
			return false
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		if len(fields) < numMovieColumns {
			parseErr = errors.NotValidf("line %d of %s", i+1, path)
			return false
		}
		movieId, err := strconv.Atoi(fields[0])
		if err != nil {
			parseErr = errors.Annotatef(err, "line %d of %s", i+1, path)
			return false
		}
		genres, err := catalog.ParseGenreFlags(strings.Join(fields[5:numMovieColumns], ""))
		if err != nil {
			parseErr = errors.Annotatef(err, "line %d of %s", i+1, path)
			return false
		}
		releaseDate, err := catalog.ParseReleaseDate(strings.TrimSpace(fields[2]))
		if err != nil {
			log.Logger().Warn("invalid release date", zap.Int("movie_id", movieId), zap.Error(err))
		}
		movies = append(movies, catalog.Item{
			Id:          movieId,
			Title:       fields[1],
			ReleaseDate: releaseDate,
			Link:        strings.TrimSpace(fields[4]),
			Genres:      genres,
		})
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return movies, nil
}

func (m *MovieLens) BatchInsertRatings(_ context.Context, _ []dataset.Rating) error {
	return errors.NotSupportedf("writing ratings to a MovieLens directory")
}

func (m *MovieLens) BatchInsertMovies(_ context.Context, _ []catalog.Item) error {
	return errors.NotSupportedf("writing movies to a MovieLens directory")
}
