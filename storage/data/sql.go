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
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/dataset"
	"github.com/gorse-io/cinema/storage"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

type SQLRating struct {
	UserId    int   `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	ItemId    int   `gorm:"column:item_id;primaryKey;autoIncrement:false;index"`
	Rating    int   `gorm:"column:rating;not null"`
	Timestamp int64 `gorm:"column:timestamp;not null"`
}

type SQLMovie struct {
	MovieId     int    `gorm:"column:movie_id;primaryKey;autoIncrement:false"`
	Title       string `gorm:"column:title;type:varchar(256);not null"`
	ReleaseDate string `gorm:"column:release_date;type:varchar(16);not null;default:''"`
	ImdbUrl     string `gorm:"column:imdb_url;type:varchar(512);not null;default:''"`
	Genres      string `gorm:"column:genres;type:varchar(32);not null"`
}

// SQLDatabase stores ratings and movies in a SQL database.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

// Init creates the ratings and movies tables.
func (d *SQLDatabase) Init() error {
	db := d.gormDB
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	if err := db.AutoMigrate(&SQLRating{}, &SQLMovie{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) LoadRatings(ctx context.Context) ([]dataset.Rating, error) {
	var rows []SQLRating
	if err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).Order("user_id, item_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	ratings := make([]dataset.Rating, 0, len(rows))
	for _, row := range rows {
		rating := dataset.Rating{
			UserId:    row.UserId,
			ItemId:    row.ItemId,
			Value:     row.Rating,
			Timestamp: row.Timestamp,
		}
		if err := rating.Validate(); err != nil {
			return nil, errors.Trace(err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, nil
}

func (d *SQLDatabase) LoadMovies(ctx context.Context) ([]catalog.Item, error) {
	var rows []SQLMovie
	if err := d.gormDB.WithContext(ctx).Table(d.MoviesTable()).Order("movie_id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	movies := make([]catalog.Item, 0, len(rows))
	for _, row := range rows {
		genres, err := catalog.ParseGenreFlags(row.Genres)
		if err != nil {
			return nil, errors.Annotatef(err, "movie %d", row.MovieId)
		}
		releaseDate, err := catalog.ParseReleaseDate(row.ReleaseDate)
		if err != nil {
			return nil, errors.Annotatef(err, "movie %d", row.MovieId)
		}
		movies = append(movies, catalog.Item{
			Id:          row.MovieId,
			Title:       row.Title,
			ReleaseDate: releaseDate,
			Link:        row.ImdbUrl,
			Genres:      genres,
		})
	}
	return movies, nil
}

// BatchInsertRatings inserts ratings. Existing (user, item) pairs are overwritten.
func (d *SQLDatabase) BatchInsertRatings(ctx context.Context, ratings []dataset.Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	for _, rating := range ratings {
		if err := rating.Validate(); err != nil {
			return errors.Trace(err)
		}
	}
	rows := lo.Map(ratings, func(r dataset.Rating, _ int) SQLRating {
		return SQLRating{UserId: r.UserId, ItemId: r.ItemId, Rating: r.Value, Timestamp: r.Timestamp}
	})
	err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "timestamp"}),
	}).Create(&rows).Error
	return errors.Trace(err)
}

// BatchInsertMovies inserts movies. Existing movies are overwritten.
func (d *SQLDatabase) BatchInsertMovies(ctx context.Context, movies []catalog.Item) error {
	if len(movies) == 0 {
		return nil
	}
	rows := lo.Map(movies, func(item catalog.Item, _ int) SQLMovie {
		return SQLMovie{
			MovieId:     item.Id,
			Title:       item.Title,
			ReleaseDate: catalog.FormatReleaseDate(item.ReleaseDate),
			ImdbUrl:     item.Link,
			Genres:      catalog.FormatGenreFlags(item.Genres),
		}
	})
	err := d.gormDB.WithContext(ctx).Table(d.MoviesTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "release_date", "imdb_url", "genres"}),
	}).Create(&rows).Error
	return errors.Trace(err)
}
