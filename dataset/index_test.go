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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex(t *testing.T) {
	idx := NewIndex([]int{30, 10, 20, 10, 30})
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []int{10, 20, 30}, idx.Names())
	for i, name := range []int{10, 20, 30} {
		number, err := idx.ToNumber(name)
		assert.NoError(t, err)
		assert.Equal(t, i, number)
		back, err := idx.ToName(number)
		assert.NoError(t, err)
		assert.Equal(t, name, back)
	}
	_, err := idx.ToNumber(40)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = idx.ToName(3)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = idx.ToName(-1)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestIdentifierIndex(t *testing.T) {
	index := NewIdentifierIndex([]Rating{
		{UserId: 2, ItemId: 100, Value: 3},
		{UserId: 1, ItemId: 200, Value: 4},
		{UserId: 2, ItemId: 200, Value: 5},
	})
	assert.Equal(t, 2, index.Users().Len())
	assert.Equal(t, 2, index.Items().Len())

	number, err := index.Encode(UserKind, 2)
	assert.NoError(t, err)
	assert.Equal(t, 1, number)
	number, err = index.Encode(ItemKind, 100)
	assert.NoError(t, err)
	assert.Equal(t, 0, number)
	id, err := index.Decode(ItemKind, 1)
	assert.NoError(t, err)
	assert.Equal(t, 200, id)

	// user and item namespaces are independent
	_, err = index.Encode(UserKind, 100)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	_, err = index.Encode(ItemKind, 1)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
	assert.ErrorContains(t, err, "item")
	_, err = index.Decode(UserKind, 5)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "user", UserKind.String())
	assert.Equal(t, "item", ItemKind.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}
