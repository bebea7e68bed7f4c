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
	"sort"

	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/dataset"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultLikeThreshold = 4
	DefaultNumFavorites  = 3
)

// GenreCount is a favorite genre and the number of liked ratings tagged with it.
type GenreCount struct {
	Genre catalog.Genre
	Count int
}

// Stats summarizes the rating history of a user. StdDev is NaN for fewer than two ratings.
type Stats struct {
	Count     int
	Mean      float64
	StdDev    float64
	Favorites []GenreCount
}

// UserStats computes per-user statistics.
type UserStats struct {
	ratings       *dataset.RatingStore
	items         *catalog.Store
	likeThreshold int
	numFavorites  int
}

// NewUserStats creates statistics over a rating store. Ratings of at least
// likeThreshold count toward favorite genres, and the top numFavorites genres
// are reported.
func NewUserStats(ratings *dataset.RatingStore, items *catalog.Store, likeThreshold, numFavorites int) *UserStats {
	return &UserStats{
		ratings:       ratings,
		items:         items,
		likeThreshold: likeThreshold,
		numFavorites:  numFavorites,
	}
}

// Stats returns the statistics of a user.
func (s *UserStats) Stats(userId int) (Stats, error) {
	if !s.ratings.IsKnownUser(userId) {
		return Stats{}, unknownUser(userId)
	}
	ratings := s.ratings.RatingsForUser(userId)
	values := lo.Map(ratings, func(r dataset.Rating, _ int) float64 { return float64(r.Value) })
	result := Stats{
		Count:     len(values),
		Mean:      stat.Mean(values, nil),
		StdDev:    math.NaN(),
		Favorites: s.favorites(ratings),
	}
	if len(values) >= 2 {
		result.StdDev = stat.StdDev(values, nil)
	}
	return result, nil
}

func (s *UserStats) favorites(ratings []dataset.Rating) []GenreCount {
	counts := make([]int, catalog.NumGenres)
	for _, rating := range ratings {
		if rating.Value < s.likeThreshold {
			continue
		}
		item, ok := s.items.Lookup(rating.ItemId)
		if !ok {
			continue
		}
		for _, genre := range item.GenreList() {
			counts[genre]++
		}
	}
	favorites := make([]GenreCount, 0, catalog.NumGenres)
	for _, genre := range catalog.Genres() {
		if counts[genre] > 0 {
			favorites = append(favorites, GenreCount{Genre: genre, Count: counts[genre]})
		}
	}
	sort.SliceStable(favorites, func(i, j int) bool {
		return favorites[i].Count > favorites[j].Count
	})
	if len(favorites) > s.numFavorites {
		favorites = favorites[:max(s.numFavorites, 0)]
	}
	return favorites
}
