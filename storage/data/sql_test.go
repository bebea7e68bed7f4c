// Copyright 2021 gorse Project Authors
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
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/dataset"
	"github.com/gorse-io/cinema/storage"
	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type SQLTestSuite struct {
	suite.Suite
	Database
	tablePrefix string
}

func (suite *SQLTestSuite) SetupTest() {
	var err error
	suite.Database, err = Open(fmt.Sprintf("sqlite://%s/data.db", suite.T().TempDir()), suite.tablePrefix,
		storage.WithMaxOpenConns(4), storage.WithConnMaxLifetime(time.Minute))
	suite.NoError(err)
	suite.NoError(suite.Database.Init())
}

func (suite *SQLTestSuite) TearDownTest() {
	suite.NoError(suite.Database.Close())
}

func (suite *SQLTestSuite) TestRatings() {
	ctx := context.Background()
	ratings, err := suite.LoadRatings(ctx)
	suite.NoError(err)
	suite.Empty(ratings)

	err = suite.BatchInsertRatings(ctx, []dataset.Rating{
		{UserId: 2, ItemId: 10, Value: 4, Timestamp: 100},
		{UserId: 1, ItemId: 20, Value: 3, Timestamp: 200},
		{UserId: 1, ItemId: 10, Value: 5, Timestamp: 300},
	})
	suite.NoError(err)
	// overwrite an existing rating
	err = suite.BatchInsertRatings(ctx, []dataset.Rating{{UserId: 1, ItemId: 20, Value: 1, Timestamp: 400}})
	suite.NoError(err)
	suite.NoError(suite.BatchInsertRatings(ctx, nil))

	ratings, err = suite.LoadRatings(ctx)
	suite.NoError(err)
	suite.Equal([]dataset.Rating{
		{UserId: 1, ItemId: 10, Value: 5, Timestamp: 300},
		{UserId: 1, ItemId: 20, Value: 1, Timestamp: 400},
		{UserId: 2, ItemId: 10, Value: 4, Timestamp: 100},
	}, ratings)
}

func (suite *SQLTestSuite) TestRatingOutOfRange() {
	ctx := context.Background()
	err := suite.BatchInsertRatings(ctx, []dataset.Rating{
		{UserId: 1, ItemId: 10, Value: 4},
		{UserId: 1, ItemId: 20, Value: 0},
	})
	suite.True(errors.Is(err, errors.NotValid))
	ratings, err := suite.LoadRatings(ctx)
	suite.NoError(err)
	suite.Empty(ratings)

	// rows written by other tools are checked on load
	database := suite.Database.(*SQLDatabase)
	suite.NoError(database.gormDB.Table(database.RatingsTable()).Create(&SQLRating{UserId: 1, ItemId: 10, Rating: -1}).Error)
	_, err = suite.LoadRatings(ctx)
	suite.True(errors.Is(err, errors.NotValid))
}

func (suite *SQLTestSuite) TestMovies() {
	ctx := context.Background()
	releaseDate := time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC)
	err := suite.BatchInsertMovies(ctx, []catalog.Item{
		{Id: 2, Title: "GoldenEye (1995)", Genres: catalog.NewGenreSet(catalog.Action, catalog.Thriller)},
		{Id: 1, Title: "Toy Story (1995)", ReleaseDate: &releaseDate, Link: "http://us.imdb.com/M/title-exact?Toy%20Story%20(1995)",
			Genres: catalog.NewGenreSet(catalog.Animation, catalog.Childrens, catalog.Comedy)},
	})
	suite.NoError(err)
	err = suite.BatchInsertMovies(ctx, []catalog.Item{{Id: 2, Title: "GoldenEye", Genres: catalog.NewGenreSet(catalog.Action)}})
	suite.NoError(err)

	movies, err := suite.LoadMovies(ctx)
	suite.NoError(err)
	suite.Len(movies, 2)
	suite.Equal(1, movies[0].Id)
	suite.Equal("Toy Story (1995)", movies[0].Title)
	suite.Equal(releaseDate, *movies[0].ReleaseDate)
	suite.Equal("http://us.imdb.com/M/title-exact?Toy%20Story%20(1995)", movies[0].Link)
	suite.Equal([]catalog.Genre{catalog.Animation, catalog.Childrens, catalog.Comedy}, movies[0].GenreList())
	suite.Equal(2, movies[1].Id)
	suite.Equal("GoldenEye", movies[1].Title)
	suite.Nil(movies[1].ReleaseDate)
	suite.Empty(movies[1].Link)
	suite.Equal([]catalog.Genre{catalog.Action}, movies[1].GenreList())
}

func TestSQLite(t *testing.T) {
	suite.Run(t, new(SQLTestSuite))
}

func TestSQLitePrefix(t *testing.T) {
	suite.Run(t, &SQLTestSuite{tablePrefix: "cinema_"})
}
