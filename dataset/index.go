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
package dataset

import (
	"fmt"
	"sort"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// ErrUnknownIdentifier is returned when an id was never observed in the rating set.
const ErrUnknownIdentifier = errors.ConstError("unknown identifier")

// Kind is the kind of entity an identifier belongs to.
type Kind int

const (
	UserKind Kind = iota
	ItemKind
)

func (k Kind) String() string {
	switch k {
	case UserKind:
		return "user"
	case ItemKind:
		return "item"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Index maps external ids to dense indices in [0, Len()). Indices follow
// the ascending order of ids.
type Index struct {
	numbers map[int]int
	names   []int
}

// NewIndex builds an index from ids. Duplicates are collapsed.
func NewIndex(ids []int) *Index {
	names := lo.Uniq(ids)
	sort.Ints(names)
	numbers := make(map[int]int, len(names))
	for i, name := range names {
		numbers[name] = i
	}
	return &Index{numbers: numbers, names: names}
}

// Len returns the number of ids.
func (idx *Index) Len() int {
	return len(idx.names)
}

// ToNumber converts an external id to its dense index.
func (idx *Index) ToNumber(name int) (int, error) {
	if number, ok := idx.numbers[name]; ok {
		return number, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownIdentifier, name)
}

// ToName converts a dense index back to its external id.
func (idx *Index) ToName(number int) (int, error) {
	if number < 0 || number >= len(idx.names) {
		return 0, fmt.Errorf("%w: index %d", ErrUnknownIdentifier, number)
	}
	return idx.names[number], nil
}

// Names returns all ids in ascending order.
func (idx *Index) Names() []int {
	names := make([]int, len(idx.names))
	copy(names, idx.names)
	return names
}

// IdentifierIndex holds the user and item indices built from a rating set.
type IdentifierIndex struct {
	users *Index
	items *Index
}

func NewIdentifierIndex(ratings []Rating) *IdentifierIndex {
	return &IdentifierIndex{
		users: NewIndex(lo.Map(ratings, func(r Rating, _ int) int { return r.UserId })),
		items: NewIndex(lo.Map(ratings, func(r Rating, _ int) int { return r.ItemId })),
	}
}

func (i *IdentifierIndex) Users() *Index {
	return i.users
}

func (i *IdentifierIndex) Items() *Index {
	return i.items
}

func (i *IdentifierIndex) index(kind Kind) *Index {
	if kind == UserKind {
		return i.users
	}
	return i.items
}

// Encode returns the dense index of an external id.
func (i *IdentifierIndex) Encode(kind Kind, id int) (int, error) {
	number, err := i.index(kind).ToNumber(id)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", kind, err)
	}
	return number, nil
}

// Decode returns the external id of a dense index.
func (i *IdentifierIndex) Decode(kind Kind, number int) (int, error) {
	id, err := i.index(kind).ToName(number)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", kind, err)
	}
	return id, nil
}
