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
)

// ReadLines splits each line of a delimited file into fields and passes them
// to handler with the line number. Reading stops early when handler returns false.
func ReadLines(sc *bufio.Scanner, sep string, handler func(int, []string) bool) error {
	for lineCount := 0; sc.Scan(); lineCount++ {
		if !handler(lineCount, strings.Split(sc.Text(), sep)) {
			return nil
		}
	}
	return sc.Err()
}
