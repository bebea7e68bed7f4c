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
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

// ErrUnknownCategory is returned for a label outside the genre vocabulary.
const ErrUnknownCategory = errors.ConstError("unknown category")

// Genre is one of the closed set of catalog genres. The order is fixed and
// matches the genre columns of the MovieLens item file.
type Genre int

const (
	Unknown Genre = iota
	Action
	Adventure
	Animation
	Childrens
	Comedy
	Crime
	Documentary
	Drama
	Fantasy
	FilmNoir
	Horror
	Musical
	Mystery
	Romance
	SciFi
	Thriller
	War
	Western
)

// NumGenres is the size of the genre vocabulary.
const NumGenres = 19

var englishLabels = [NumGenres]string{
	"unknown",
	"Action",
	"Adventure",
	"Animation",
	"Children's",
	"Comedy",
	"Crime",
	"Documentary",
	"Drama",
	"Fantasy",
	"Film-Noir",
	"Horror",
	"Musical",
	"Mystery",
	"Romance",
	"Sci-Fi",
	"Thriller",
	"War",
	"Western",
}

var koreanLabels = [NumGenres]string{
	"기타",
	"액션",
	"어드벤처",
	"애니메이션",
	"아동/가족",
	"코미디",
	"범죄",
	"다큐멘터리",
	"드라마",
	"판타지",
	"느와르",
	"공포",
	"뮤지컬",
	"미스터리",
	"로맨스",
	"SF(공상과학)",
	"스릴러",
	"전쟁",
	"서부극",
}

var (
	fromEnglish = make(map[string]Genre, NumGenres)
	fromKorean  = make(map[string]Genre, NumGenres)
)

func init() {
	for i := 0; i < NumGenres; i++ {
		fromEnglish[englishLabels[i]] = Genre(i)
		fromKorean[koreanLabels[i]] = Genre(i)
	}
}

// Genres returns all genres in enumeration order.
func Genres() []Genre {
	genres := make([]Genre, NumGenres)
	for i := range genres {
		genres[i] = Genre(i)
	}
	return genres
}

func (g Genre) Valid() bool {
	return g >= 0 && g < NumGenres
}

// English returns the canonical label.
func (g Genre) English() string {
	if !g.Valid() {
		return fmt.Sprintf("Genre(%d)", int(g))
	}
	return englishLabels[g]
}

// Korean returns the display label.
func (g Genre) Korean() string {
	if !g.Valid() {
		return fmt.Sprintf("Genre(%d)", int(g))
	}
	return koreanLabels[g]
}

func (g Genre) String() string {
	return g.English()
}

func unknownCategory(label string) error {
	return fmt.Errorf("%w: %q, available genres: %s / %s", ErrUnknownCategory, label,
		strings.Join(englishLabels[:], ", "), strings.Join(koreanLabels[:], ", "))
}

// Normalize resolves a label from either namespace. Surrounding whitespace is ignored.
func Normalize(label string) (Genre, error) {
	trimmed := strings.TrimSpace(label)
	if g, ok := fromEnglish[trimmed]; ok {
		return g, nil
	}
	if g, ok := fromKorean[trimmed]; ok {
		return g, nil
	}
	return 0, unknownCategory(label)
}

// ToDisplay translates a canonical label to its display label.
func ToDisplay(canonical string) (string, error) {
	if g, ok := fromEnglish[strings.TrimSpace(canonical)]; ok {
		return g.Korean(), nil
	}
	return "", unknownCategory(canonical)
}

// ToCanonical translates a display label to its canonical label.
func ToCanonical(display string) (string, error) {
	if g, ok := fromKorean[strings.TrimSpace(display)]; ok {
		return g.English(), nil
	}
	return "", unknownCategory(display)
}

// LabelPair is a genre in both namespaces.
type LabelPair struct {
	English string `json:"english"`
	Korean  string `json:"korean"`
}

// Vocabulary is the genre vocabulary in both namespaces.
type Vocabulary struct {
	English []string
	Korean  []string
	Mapping map[string]string
}

// CategoryVocabulary returns the labels in enumeration order and the canonical to display mapping.
func CategoryVocabulary() Vocabulary {
	v := Vocabulary{
		English: make([]string, NumGenres),
		Korean:  make([]string, NumGenres),
		Mapping: make(map[string]string, NumGenres),
	}
	copy(v.English, englishLabels[:])
	copy(v.Korean, koreanLabels[:])
	for i := 0; i < NumGenres; i++ {
		v.Mapping[englishLabels[i]] = koreanLabels[i]
	}
	return v
}

// NewGenreSet creates a membership vector with the given genres set.
func NewGenreSet(genres ...Genre) *bitset.BitSet {
	set := bitset.New(NumGenres)
	for _, g := range genres {
		set.Set(uint(g))
	}
	return set
}

// ParseGenreFlags parses NumGenres characters of '0' or '1' in enumeration order.
func ParseGenreFlags(s string) (*bitset.BitSet, error) {
	if len(s) != NumGenres {
		return nil, errors.NotValidf("genre flags %q", s)
	}
	set := bitset.New(NumGenres)
	for i, c := range s {
		switch c {
		case '1':
			set.Set(uint(i))
		case '0':
		default:
			return nil, errors.NotValidf("genre flags %q", s)
		}
	}
	return set, nil
}

// FormatGenreFlags is the inverse of ParseGenreFlags.
func FormatGenreFlags(set *bitset.BitSet) string {
	var builder strings.Builder
	for i := 0; i < NumGenres; i++ {
		if set != nil && set.Test(uint(i)) {
			builder.WriteByte('1')
		} else {
			builder.WriteByte('0')
		}
	}
	return builder.String()
}
