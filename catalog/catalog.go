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
package catalog

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/cinema/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const releaseDateLayout = "02-Jan-2006"

// Item is a movie in the catalog.
type Item struct {
	Id          int
	Title       string
	ReleaseDate *time.Time
	Link        string
	Genres      *bitset.BitSet
}

// HasGenre reports whether the genre flag is set.
func (item *Item) HasGenre(g Genre) bool {
	return item.Genres != nil && g.Valid() && item.Genres.Test(uint(g))
}

// GenreList returns the genres set on the item in enumeration order.
func (item *Item) GenreList() []Genre {
	var genres []Genre
	for _, g := range Genres() {
		if item.HasGenre(g) {
			genres = append(genres, g)
		}
	}
	return genres
}

// CategoryFlags returns the labels of every genre set on the item in enumeration order.
func (item *Item) CategoryFlags() []LabelPair {
	genres := item.GenreList()
	pairs := make([]LabelPair, len(genres))
	for i, g := range genres {
		pairs[i] = LabelPair{English: g.English(), Korean: g.Korean()}
	}
	return pairs
}

// ParseReleaseDate parses a MovieLens release date such as "01-Jan-1995". Other
// layouts are tried as a fallback. An empty string is an absent date.
func ParseReleaseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(releaseDateLayout, s)
	if err != nil {
		t, err = dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return nil, errors.NotValidf("release date %q", s)
		}
	}
	return &t, nil
}

// FormatReleaseDate formats a release date the way MovieLens writes it.
func FormatReleaseDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(releaseDateLayout)
}

// Store is the catalog metadata store. Items keep their source order.
type Store struct {
	items     []Item
	positions map[int]int
}

// NewStore creates a store. The first item wins when ids repeat.
func NewStore(items []Item) *Store {
	store := &Store{
		items:     make([]Item, 0, len(items)),
		positions: make(map[int]int, len(items)),
	}
	for _, item := range items {
		if _, exist := store.positions[item.Id]; exist {
			log.Logger().Warn("duplicate catalog item ignored",
				zap.Int("movie_id", item.Id), zap.String("title", item.Title))
			continue
		}
		if item.Genres == nil {
			item.Genres = bitset.New(NumGenres)
		}
		store.positions[item.Id] = len(store.items)
		store.items = append(store.items, item)
	}
	return store
}

// Lookup returns the item with the id. Absence is not an error.
func (s *Store) Lookup(id int) (Item, bool) {
	if pos, ok := s.positions[id]; ok {
		return s.items[pos], true
	}
	return Item{}, false
}

// Items returns all items in catalog order. The slice must not be modified.
func (s *Store) Items() []Item {
	return s.items
}

func (s *Store) Len() int {
	return len(s.items)
}
