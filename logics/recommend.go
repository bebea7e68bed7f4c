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
package logics

import (
	"fmt"

	"github.com/gorse-io/cinema/catalog"
	"github.com/gorse-io/cinema/common/heap"
	"github.com/gorse-io/cinema/dataset"
	"github.com/gorse-io/cinema/model"
	"github.com/juju/errors"
)

// ErrUnknownUser is returned when a user has no ratings.
const ErrUnknownUser = errors.ConstError("unknown user")

// Score is a recommended item with its predicted score.
type Score struct {
	Id    int
	Score float64
}

// Recommender ranks unwatched catalog items by their predicted scores.
type Recommender struct {
	ratings *dataset.RatingStore
	items   *catalog.Store
	model   *model.SVD
}

func NewRecommender(ratings *dataset.RatingStore, items *catalog.Store, svd *model.SVD) *Recommender {
	return &Recommender{
		ratings: ratings,
		items:   items,
		model:   svd,
	}
}

func unknownUser(userId int) error {
	return fmt.Errorf("%w: %d", ErrUnknownUser, userId)
}

// RecommendAll returns the top n unwatched items for a user.
func (r *Recommender) RecommendAll(userId, n int) ([]Score, error) {
	return r.recommend(userId, n, nil)
}

// RecommendByCategory returns the top n unwatched items of a genre for a user.
// The label may be given in either namespace.
func (r *Recommender) RecommendByCategory(userId int, label string, n int) ([]Score, error) {
	if !r.ratings.IsKnownUser(userId) {
		return nil, unknownUser(userId)
	}
	genre, err := catalog.Normalize(label)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r.recommend(userId, n, func(item *catalog.Item) bool {
		return item.HasGenre(genre)
	})
}

func (r *Recommender) recommend(userId, n int, filter func(item *catalog.Item) bool) ([]Score, error) {
	if !r.ratings.IsKnownUser(userId) {
		return nil, unknownUser(userId)
	}
	if n <= 0 {
		return []Score{}, nil
	}
	userIndex, err := r.ratings.Index().Encode(dataset.UserKind, userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	predictions := r.model.PredictRow(userIndex)
	watched := r.ratings.Watched(userId)
	topK := heap.NewTopKFilter[int, float64](n)
	for i := range r.items.Items() {
		item := &r.items.Items()[i]
		if watched.Contains(item.Id) || (filter != nil && !filter(item)) {
			continue
		}
		itemIndex, err := r.ratings.Index().Encode(dataset.ItemKind, item.Id)
		if err != nil {
			// items nobody rated cannot be scored
			continue
		}
		topK.Push(item.Id, predictions[itemIndex])
	}
	elems := topK.PopAll()
	scores := make([]Score, len(elems))
	for i, elem := range elems {
		scores[i] = Score{Id: elem.Value, Score: elem.Weight}
	}
	return scores, nil
}

// Predictions returns a copy of the predicted scores of a user, indexed by
// the dense item index.
func (r *Recommender) Predictions(userId int) ([]float64, error) {
	userIndex, err := r.ratings.Index().Encode(dataset.UserKind, userId)
	if err != nil {
		return nil, unknownUser(userId)
	}
	row := r.model.PredictRow(userIndex)
	predictions := make([]float64, len(row))
	copy(predictions, row)
	return predictions, nil
}
