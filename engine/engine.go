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
	"time"

	"github.com/gorse-io/cinema/base/log"
	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/config"
	"github.com/gorse-io/cinema/dataset"
	"github.com/gorse-io/cinema/logics"
	"github.com/gorse-io/cinema/model"
	"github.com/gorse-io/cinema/storage/data"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	// ErrInitialization is returned when the engine cannot be built.
	ErrInitialization = errors.ConstError("initialization failed")
	// ErrNotReady is returned by queries issued before the engine is published.
	ErrNotReady = errors.ConstError("recommender is not ready")
)

// Engine answers recommendation and statistics queries. All state is built
// by New and never modified afterward, so queries are safe for concurrent use.
type Engine struct {
	config      *config.Config
	ratings     *dataset.RatingStore
	items       *catalog.Store
	model       *model.SVD
	recommender *logics.Recommender
	userStats   *logics.UserStats
}

// Health reports whether the engine can serve queries.
type Health struct {
	Ready bool
}

// New builds the rating store and the catalog, fits the model and caches the
// predictions. Any failure is wrapped with ErrInitialization.
func New(ctx context.Context, ratings []dataset.Rating, items []catalog.Item, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if len(ratings) == 0 {
		return nil, fmt.Errorf("%w: no ratings", ErrInitialization)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no movies", ErrInitialization)
	}
	start := time.Now()
	e := &Engine{
		config:  cfg,
		ratings: dataset.Load(ratings),
		items:   catalog.NewStore(items),
	}
	log.Logger().Info("data loaded",
		zap.Int("n_ratings", e.ratings.Count()),
		zap.Int("n_movies", e.items.Len()))
	nUsers, nItems := e.ratings.Shape()
	log.Logger().Info("rating matrix built",
		zap.Int("n_users", nUsers),
		zap.Int("n_items", nItems),
		zap.Float64("sparsity_percent", (1-e.ratings.Density())*100))

	e.model = model.NewSVD(cfg.Model.GetParams())
	if err := e.model.Fit(ctx, e.ratings.Matrix(), cfg.Model.GetFitConfig()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	e.recommender = logics.NewRecommender(e.ratings, e.items, e.model)
	e.userStats = logics.NewUserStats(e.ratings, e.items, cfg.Recommend.LikeThreshold, cfg.Recommend.NumFavorites)
	log.Logger().Info("recommender ready", zap.Duration("elapsed", time.Since(start)))
	return e, nil
}

// Load reads ratings and movies from a database and builds the engine.
func Load(ctx context.Context, database data.Database, cfg *config.Config) (*Engine, error) {
	ratings, err := database.LoadRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, errors.Annotate(err, "failed to load ratings"))
	}
	items, err := database.LoadMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, errors.Annotate(err, "failed to load movies"))
	}
	return New(ctx, ratings, items, cfg)
}

// Open connects to the data store named by the configuration and builds the engine.
func Open(ctx context.Context, cfg *config.Config) (*Engine, error) {
	log.Logger().Info("load data", zap.String("data_store", log.RedactDBURL(cfg.Database.DataStore)))
	database, err := data.Open(cfg.Database.DataStore, cfg.Database.TablePrefix, cfg.Database.StorageOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Logger().Warn("failed to close data store", zap.Error(err))
		}
	}()
	if err = database.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	return Load(ctx, database, cfg)
}

func (e *Engine) Health() Health {
	return Health{Ready: e != nil && !e.model.Invalid()}
}

// Stats returns the rating statistics of a user.
func (e *Engine) Stats(userId int) (logics.Stats, error) {
	return e.userStats.Stats(userId)
}

// RecommendAll returns the top n unwatched movies for a user.
func (e *Engine) RecommendAll(userId, n int) ([]logics.Score, error) {
	return e.recommender.RecommendAll(userId, n)
}

// RecommendByCategory returns the top n unwatched movies of a genre for a user.
func (e *Engine) RecommendByCategory(userId int, label string, n int) ([]logics.Score, error) {
	return e.recommender.RecommendByCategory(userId, label, n)
}

// CatalogItem looks up a movie. Absence is not an error.
func (e *Engine) CatalogItem(itemId int) (catalog.Item, bool) {
	return e.items.Lookup(itemId)
}

func (e *Engine) CategoryVocabulary() catalog.Vocabulary {
	return catalog.CategoryVocabulary()
}

// KnownUserIds returns up to limit user ids in ascending order and the number of users.
func (e *Engine) KnownUserIds(limit int) ([]int, int) {
	userIds := e.ratings.UserIds()
	return userIds[:min(max(limit, 0), len(userIds))], len(userIds)
}

// Predictions returns the predicted scores of a user keyed by movie id.
func (e *Engine) Predictions(userId int) (map[int]float64, error) {
	row, err := e.recommender.Predictions(userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	predictions := make(map[int]float64, len(row))
	for i, score := range row {
		itemId, err := e.ratings.Index().Decode(dataset.ItemKind, i)
		if err != nil {
			return nil, errors.Trace(err)
		}
		predictions[itemId] = score
	}
	return predictions, nil
}

// Shape returns the number of users and rated movies.
func (e *Engine) Shape() (int, int) {
	return e.ratings.Shape()
}

// Density returns the fraction of observed cells in the rating matrix.
func (e *Engine) Density() float64 {
	return e.ratings.Density()
}

func (e *Engine) Config() *config.Config {
	return e.config
}
