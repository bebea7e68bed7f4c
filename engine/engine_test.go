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
package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorse-io/cinema/base"
	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/config"
	"github.com/gorse-io/cinema/dataset"
	"github.com/gorse-io/cinema/logics"
	"github.com/gorse-io/cinema/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func newTestConfig(nFactors int) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Model.NFactors = nFactors
	return cfg
}

func newTestData() ([]dataset.Rating, []catalog.Item) {
	rng := base.NewRandomGenerator(1)
	var ratings []dataset.Rating
	for userId := 1; userId <= 30; userId++ {
		for _, k := range rng.Perm(20)[:8] {
			ratings = append(ratings, dataset.Rating{UserId: userId, ItemId: k + 1, Value: rng.Intn(5) + 1})
		}
	}
	for itemId := 1; itemId <= 20; itemId++ {
		ratings = append(ratings, dataset.Rating{UserId: 31, ItemId: itemId, Value: 4})
	}
	var items []catalog.Item
	for itemId := 1; itemId <= 25; itemId++ {
		items = append(items, catalog.Item{
			Id:     itemId,
			Title:  "Movie",
			Genres: catalog.NewGenreSet(catalog.Genre(itemId%4) + catalog.Action),
		})
	}
	return ratings, items
}

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func (suite *EngineTestSuite) SetupSuite() {
	ratings, items := newTestData()
	var err error
	suite.engine, err = New(context.Background(), ratings, items, newTestConfig(5))
	suite.NoError(err)
}

func (suite *EngineTestSuite) TestHealth() {
	suite.True(suite.engine.Health().Ready)
}

func (suite *EngineTestSuite) TestShape() {
	nUsers, nItems := suite.engine.Shape()
	suite.Equal(31, nUsers)
	suite.Equal(20, nItems)
	suite.Greater(suite.engine.Density(), 0.0)
	suite.LessOrEqual(suite.engine.Density(), 1.0)
}

func (suite *EngineTestSuite) TestRecommendAll() {
	scores, err := suite.engine.RecommendAll(1, 5)
	suite.NoError(err)
	suite.Len(scores, 5)
	for i := 1; i < len(scores); i++ {
		suite.GreaterOrEqual(scores[i-1].Score, scores[i].Score)
	}
	// user 31 has rated every scoreable movie
	scores, err = suite.engine.RecommendAll(31, 5)
	suite.NoError(err)
	suite.Empty(scores)

	_, err = suite.engine.RecommendAll(1000, 5)
	suite.ErrorIs(err, logics.ErrUnknownUser)
}

func (suite *EngineTestSuite) TestRecommendByCategory() {
	scores, err := suite.engine.RecommendByCategory(1, "Action", 20)
	suite.NoError(err)
	for _, score := range scores {
		item, ok := suite.engine.CatalogItem(score.Id)
		suite.True(ok)
		suite.True(item.HasGenre(catalog.Action))
	}
	korean, err := suite.engine.RecommendByCategory(1, "액션", 20)
	suite.NoError(err)
	suite.Equal(scores, korean)

	_, err = suite.engine.RecommendByCategory(1, "Space Opera", 5)
	suite.ErrorIs(err, catalog.ErrUnknownCategory)
	_, err = suite.engine.RecommendByCategory(1000, "Space Opera", 5)
	suite.ErrorIs(err, logics.ErrUnknownUser)
}

func (suite *EngineTestSuite) TestStats() {
	stats, err := suite.engine.Stats(31)
	suite.NoError(err)
	suite.Equal(20, stats.Count)
	suite.Equal(4.0, stats.Mean)
	suite.Equal(0.0, stats.StdDev)
	suite.Len(stats.Favorites, 3)

	_, err = suite.engine.Stats(1000)
	suite.ErrorIs(err, logics.ErrUnknownUser)
}

func (suite *EngineTestSuite) TestCatalogItem() {
	item, ok := suite.engine.CatalogItem(25)
	suite.True(ok)
	suite.Equal(25, item.Id)
	_, ok = suite.engine.CatalogItem(26)
	suite.False(ok)
}

func (suite *EngineTestSuite) TestCategoryVocabulary() {
	vocabulary := suite.engine.CategoryVocabulary()
	suite.Len(vocabulary.English, catalog.NumGenres)
	suite.Len(vocabulary.Korean, catalog.NumGenres)
}

func (suite *EngineTestSuite) TestKnownUserIds() {
	userIds, total := suite.engine.KnownUserIds(3)
	suite.Equal([]int{1, 2, 3}, userIds)
	suite.Equal(31, total)
	userIds, total = suite.engine.KnownUserIds(100)
	suite.Equal(lo.RangeFrom(1, 31), userIds)
	suite.Equal(31, total)
	userIds, _ = suite.engine.KnownUserIds(-1)
	suite.Empty(userIds)
}

func (suite *EngineTestSuite) TestPredictions() {
	predictions, err := suite.engine.Predictions(1)
	suite.NoError(err)
	suite.Len(predictions, 20)
	for itemId, score := range predictions {
		suite.GreaterOrEqual(itemId, 1)
		suite.LessOrEqual(itemId, 20)
		suite.False(math.IsNaN(score))
	}
	_, err = suite.engine.Predictions(1000)
	suite.ErrorIs(err, logics.ErrUnknownUser)
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestNew_Empty(t *testing.T) {
	ratings, items := newTestData()
	_, err := New(context.Background(), nil, items, newTestConfig(5))
	assert.ErrorIs(t, err, ErrInitialization)
	_, err = New(context.Background(), ratings, nil, newTestConfig(5))
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestNew_RankTooHigh(t *testing.T) {
	ratings, items := newTestData()
	_, err := New(context.Background(), ratings, items, newTestConfig(20))
	assert.ErrorIs(t, err, ErrInitialization)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestNew_Cancelled(t *testing.T) {
	ratings, items := newTestData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ctx, ratings, items, newTestConfig(5))
	assert.ErrorIs(t, err, ErrInitialization)
	assert.ErrorIs(t, err, context.Canceled)
}

type mockDatabase struct {
	ratings    []dataset.Rating
	movies     []catalog.Item
	ratingsErr error
}

func (m *mockDatabase) Init() error  { return nil }
func (m *mockDatabase) Close() error { return nil }

func (m *mockDatabase) LoadRatings(context.Context) ([]dataset.Rating, error) {
	return m.ratings, m.ratingsErr
}

func (m *mockDatabase) LoadMovies(context.Context) ([]catalog.Item, error) {
	return m.movies, nil
}

func (m *mockDatabase) BatchInsertRatings(context.Context, []dataset.Rating) error {
	return errors.NotSupportedf("insert")
}

func (m *mockDatabase) BatchInsertMovies(context.Context, []catalog.Item) error {
	return errors.NotSupportedf("insert")
}

func TestLoad(t *testing.T) {
	ratings, items := newTestData()
	e, err := Load(context.Background(), &mockDatabase{ratings: ratings, movies: items}, newTestConfig(5))
	assert.NoError(t, err)
	assert.True(t, e.Health().Ready)

	_, err = Load(context.Background(), &mockDatabase{ratingsErr: errors.NotFoundf("u.data")}, newTestConfig(5))
	assert.ErrorIs(t, err, ErrInitialization)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestHolder(t *testing.T) {
	var holder Holder
	assert.False(t, holder.Health().Ready)
	_, err := holder.Load()
	assert.ErrorIs(t, err, ErrNotReady)

	ratings, items := newTestData()
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if e, err := holder.Load(); err == nil {
				_, _ = e.RecommendAll(1, 3)
			}
		})
	}
	assert.NoError(t, holder.Run(context.Background(), func(ctx context.Context) (*Engine, error) {
		return New(ctx, ratings, items, newTestConfig(5))
	}))
	wg.Wait()
	assert.True(t, holder.Health().Ready)
	first, err := holder.Load()
	assert.NoError(t, err)

	// published engine is never replaced
	second, err := New(context.Background(), ratings, items, newTestConfig(4))
	assert.NoError(t, err)
	assert.False(t, holder.Store(second))
	current, _ := holder.Load()
	assert.Same(t, first, current)
}

func TestHolder_Failure(t *testing.T) {
	var holder Holder
	err := holder.Run(context.Background(), func(ctx context.Context) (*Engine, error) {
		return New(ctx, nil, nil, nil)
	})
	assert.ErrorIs(t, err, ErrInitialization)
	_, err = holder.Load()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Contains(t, err.Error(), "initialization failed")
	assert.False(t, holder.Health().Ready)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ratings, items := newTestData()
	var ratingLines, movieLines string
	for _, rating := range ratings {
		ratingLines += fmt.Sprintf("%d\t%d\t%d\t%d\n", rating.UserId, rating.ItemId, rating.Value, 881250949)
	}
	for _, item := range items {
		movieLines += fmt.Sprintf("%d|%s|01-Jan-1995||http://example.com|%s\n",
			item.Id, item.Title, strings.Join(strings.Split(catalog.FormatGenreFlags(item.Genres), ""), "|"))
	}
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "u.data"), []byte(ratingLines), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "u.item"), []byte(movieLines), 0644))

	cfg := newTestConfig(5)
	cfg.Database.DataStore = "movielens://" + dir
	e, err := Open(context.Background(), cfg)
	assert.NoError(t, err)
	nUsers, nItems := e.Shape()
	assert.Equal(t, 31, nUsers)
	assert.Equal(t, 20, nItems)

	cfg.Database.DataStore = "movielens://" + filepath.Join(dir, "missing")
	_, err = Open(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInitialization)
	assert.True(t, errors.Is(err, errors.NotFound))
}
