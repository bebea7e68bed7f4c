// Copyright 2021 gorse Project Authors
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
package base

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func splitLines(t *testing.T, text, sep string) [][]string {
	sc := bufio.NewScanner(strings.NewReader(text))
	lines := make([][]string, 0)
	err := ReadLines(sc, sep, func(i int, fields []string) bool {
		lines = append(lines, fields)
		return fields[0] != "STOP"
	})
	assert.NoError(t, err)
	return lines
}

func TestReadLines(t *testing.T) {
	assert.Equal(t, [][]string{{"1", "Toy Story (1995)", "01-Jan-1995"}, {"2", "\"Hello", ""}},
		splitLines(t, "1|Toy Story (1995)|01-Jan-1995\n2|\"Hello|\n", "|"))
	assert.Equal(t, [][]string{{"196", "242", "3", "881250949"}, {"STOP"}},
		splitLines(t, "196\t242\t3\t881250949\nSTOP\n1\t2\t3\t4\n", "\t"))
	assert.Empty(t, splitLines(t, "", ","))
}

func TestReadLines_LineNumbers(t *testing.T) {
	var numbers []int
	err := ReadLines(bufio.NewScanner(strings.NewReader("a\nb\nc")), ",", func(i int, _ []string) bool {
		numbers = append(numbers, i)
		return true
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, numbers)
}
