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
package storage

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestAppendURLParams(t *testing.T) {
	rawURL, err := AppendURLParams("sqlite:///tmp/data.db", []lo.Tuple2[string, string]{
		{A: "_pragma", B: "busy_timeout(10000)"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/data.db?_pragma=busy_timeout%2810000%29", rawURL)
}

func TestAppendMySQLParams(t *testing.T) {
	dsn, err := AppendMySQLParams("root:password@tcp(localhost:3306)/cinema?parseTime=false", map[string]string{
		"parseTime": "true",
		"charset":   "utf8mb4",
	})
	assert.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=false")
	assert.Contains(t, dsn, "charset=utf8mb4")
	_, err = AppendMySQLParams("root:password@tcp(localhost:3306", nil)
	assert.Error(t, err)
}

func TestTablePrefix(t *testing.T) {
	assert.Equal(t, "ratings", TablePrefix("").RatingsTable())
	assert.Equal(t, "cinema_movies", TablePrefix("cinema_").MoviesTable())
	config := NewGORMConfig("cinema_")
	assert.Equal(t, "cinema_ratings", config.NamingStrategy.TableName("SQLRating"))
	assert.Equal(t, "cinema_movies", config.NamingStrategy.TableName("SQLMovie"))
}

func TestNewOptions(t *testing.T) {
	opt := NewOptions(WithMaxOpenConns(8), WithMaxIdleConns(4), WithConnMaxLifetime(time.Minute))
	assert.Equal(t, Options{MaxOpenConns: 8, MaxIdleConns: 4, ConnMaxLifetime: time.Minute}, opt)
	assert.Equal(t, Options{}, NewOptions())
}
