// Copyright 2025 gorse Project Authors
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
package dataset

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is an observed rating of an item by a user.
type Rating struct {
	UserId    int
	ItemId    int
	Value     int
	Timestamp int64
}

// Validate fails with NotValid if the value is outside [MinRating, MaxRating].
func (r Rating) Validate() error {
	if r.Value < MinRating || r.Value > MaxRating {
		return errors.NotValidf("rating %d of user %d for item %d", r.Value, r.UserId, r.ItemId)
	}
	return nil
}

// RatingStore holds the rating set, its identifier index, the sparse rating
// matrix and the watched sets. It is read-only after Load.
type RatingStore struct {
	ratings []Rating
	index   *IdentifierIndex
	matrix  *SparseMatrix
	byUser  map[int][]Rating
	watched map[int]mapset.Set[int]
}

// Load builds a rating store from ratings.
func Load(ratings []Rating) *RatingStore {
	store := &RatingStore{
		ratings: ratings,
		index:   NewIdentifierIndex(ratings),
		byUser:  make(map[int][]Rating),
		watched: make(map[int]mapset.Set[int]),
	}
	rowIndices := make([]int, len(ratings))
	colIndices := make([]int, len(ratings))
	values := make([]float64, len(ratings))
	for k, rating := range ratings {
		// ids come from the same rating set, so encoding cannot fail
		rowIndices[k], _ = store.index.Encode(UserKind, rating.UserId)
		colIndices[k], _ = store.index.Encode(ItemKind, rating.ItemId)
		values[k] = float64(rating.Value)
		store.byUser[rating.UserId] = append(store.byUser[rating.UserId], rating)
		if _, exist := store.watched[rating.UserId]; !exist {
			store.watched[rating.UserId] = mapset.NewThreadUnsafeSet[int]()
		}
		store.watched[rating.UserId].Add(rating.ItemId)
	}
	store.matrix = NewSparseMatrix(store.index.Users().Len(), store.index.Items().Len(), rowIndices, colIndices, values)
	return store
}

func (s *RatingStore) Index() *IdentifierIndex {
	return s.index
}

func (s *RatingStore) Matrix() *SparseMatrix {
	return s.matrix
}

// Count returns the number of ratings.
func (s *RatingStore) Count() int {
	return len(s.ratings)
}

// RatingsForUser returns the ratings of a user in load order.
func (s *RatingStore) RatingsForUser(userId int) []Rating {
	return s.byUser[userId]
}

func (s *RatingStore) IsKnownUser(userId int) bool {
	_, ok := s.byUser[userId]
	return ok
}

// Watched returns the items rated by a user. Unknown users have an empty set.
func (s *RatingStore) Watched(userId int) mapset.Set[int] {
	if set, ok := s.watched[userId]; ok {
		return set
	}
	return mapset.NewThreadUnsafeSet[int]()
}

// UserIds returns all user ids in ascending order.
func (s *RatingStore) UserIds() []int {
	return s.index.Users().Names()
}

// Shape returns (n_users, n_items).
func (s *RatingStore) Shape() (int, int) {
	return s.matrix.Dims()
}

// Density returns the fraction of observed cells in the rating matrix.
func (s *RatingStore) Density() float64 {
	return s.matrix.Density()
}
