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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenreLabels(t *testing.T) {
	assert.Len(t, Genres(), NumGenres)
	assert.Equal(t, "Children's", Childrens.English())
	assert.Equal(t, "아동/가족", Childrens.Korean())
	assert.Equal(t, "Sci-Fi", SciFi.String())
	assert.Equal(t, "서부극", Western.Korean())
	assert.Equal(t, "Genre(19)", Genre(NumGenres).English())
	assert.False(t, Genre(-1).Valid())
}

func TestLabelBijection(t *testing.T) {
	for _, g := range Genres() {
		display, err := ToDisplay(g.English())
		assert.NoError(t, err)
		canonical, err := ToCanonical(display)
		assert.NoError(t, err)
		assert.Equal(t, g.English(), canonical)

		canonical, err = ToCanonical(g.Korean())
		assert.NoError(t, err)
		display, err = ToDisplay(canonical)
		assert.NoError(t, err)
		assert.Equal(t, g.Korean(), display)
	}
	vocabulary := CategoryVocabulary()
	assert.Len(t, vocabulary.Mapping, NumGenres)
	assert.ElementsMatch(t, vocabulary.Korean, func() []string {
		var values []string
		for _, v := range vocabulary.Mapping {
			values = append(values, v)
		}
		return values
	}())
	assert.Equal(t, "unknown", vocabulary.English[0])
	assert.Equal(t, "기타", vocabulary.Korean[0])
}

func TestNormalize(t *testing.T) {
	g, err := Normalize("Comedy")
	assert.NoError(t, err)
	assert.Equal(t, Comedy, g)
	g, err = Normalize(" 코미디 ")
	assert.NoError(t, err)
	assert.Equal(t, Comedy, g)
	g, err = Normalize("Film-Noir")
	assert.NoError(t, err)
	assert.Equal(t, FilmNoir, g)

	_, err = Normalize("comedy")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	_, err = Normalize("Cartoon")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.ErrorContains(t, err, "Western")
	assert.ErrorContains(t, err, "서부극")

	_, err = ToDisplay("코미디")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	_, err = ToCanonical("Comedy")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestGenreFlags(t *testing.T) {
	set, err := ParseGenreFlags("0001110000000000000")
	assert.NoError(t, err)
	assert.True(t, set.Test(uint(Animation)))
	assert.True(t, set.Test(uint(Childrens)))
	assert.True(t, set.Test(uint(Comedy)))
	assert.Equal(t, uint(3), set.Count())
	assert.Equal(t, "0001110000000000000", FormatGenreFlags(set))
	assert.Equal(t, "0000000000000000001", FormatGenreFlags(NewGenreSet(Western)))
	assert.Equal(t, "0000000000000000000", FormatGenreFlags(nil))

	_, err = ParseGenreFlags("0101")
	assert.Error(t, err)
	_, err = ParseGenreFlags("000111000000000000x")
	assert.Error(t, err)
}
