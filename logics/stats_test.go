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
package logics

import (
	"math"
	"testing"

	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/dataset"
	"github.com/stretchr/testify/assert"
)

func newTestUserStats() *UserStats {
	ratings := dataset.Load([]dataset.Rating{
		{UserId: 1, ItemId: 1, Value: 5},
		{UserId: 1, ItemId: 2, Value: 4},
		{UserId: 1, ItemId: 3, Value: 4},
		{UserId: 1, ItemId: 4, Value: 3},
		{UserId: 1, ItemId: 99, Value: 5},
		{UserId: 2, ItemId: 1, Value: 2},
		{UserId: 3, ItemId: 4, Value: 1},
		{UserId: 3, ItemId: 2, Value: 1},
	})
	items := catalog.NewStore([]catalog.Item{
		{Id: 1, Genres: catalog.NewGenreSet(catalog.Action, catalog.Drama)},
		{Id: 2, Genres: catalog.NewGenreSet(catalog.Drama, catalog.Comedy)},
		{Id: 3, Genres: catalog.NewGenreSet(catalog.Western, catalog.Comedy, catalog.Action)},
		{Id: 4, Genres: catalog.NewGenreSet(catalog.Western)},
	})
	return NewUserStats(ratings, items, DefaultLikeThreshold, DefaultNumFavorites)
}

func TestUserStats(t *testing.T) {
	userStats := newTestUserStats()
	stats, err := userStats.Stats(1)
	assert.NoError(t, err)
	assert.Equal(t, 5, stats.Count)
	assert.InDelta(t, 4.2, stats.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.7), stats.StdDev, 1e-12)
	// ties are broken by genre order, item 99 is not in the catalog
	assert.Equal(t, []GenreCount{
		{Genre: catalog.Action, Count: 2},
		{Genre: catalog.Comedy, Count: 2},
		{Genre: catalog.Drama, Count: 2},
	}, stats.Favorites)
}

func TestUserStats_SingleRating(t *testing.T) {
	stats, err := newTestUserStats().Stats(2)
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 2.0, stats.Mean)
	assert.True(t, math.IsNaN(stats.StdDev))
	assert.Empty(t, stats.Favorites)
}

func TestUserStats_NoFavorites(t *testing.T) {
	stats, err := newTestUserStats().Stats(3)
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 1.0, stats.Mean)
	assert.Equal(t, 0.0, stats.StdDev)
	assert.Empty(t, stats.Favorites)
}

func TestUserStats_Threshold(t *testing.T) {
	userStats := newTestUserStats()
	userStats.likeThreshold = 3
	userStats.numFavorites = 1
	stats, err := userStats.Stats(1)
	assert.NoError(t, err)
	// Western gains item 4 and ties with Action, Comedy and Drama
	assert.Equal(t, []GenreCount{{Genre: catalog.Action, Count: 2}}, stats.Favorites)
}

func TestUserStats_UnknownUser(t *testing.T) {
	_, err := newTestUserStats().Stats(42)
	assert.ErrorIs(t, err, ErrUnknownUser)
}
