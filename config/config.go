// Copyright 2020 gorse Project Authors
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
package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/cinema/model"
	"github.com/gorse-io/cinema/storage"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the recommender.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Model     ModelConfig     `mapstructure:"model"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Server    ServerConfig    `mapstructure:"server"`
}

// DatabaseConfig is the configuration for the rating and catalog source.
type DatabaseConfig struct {
	DataStore       string        `mapstructure:"data_store" validate:"required,data_store"`
	TablePrefix     string        `mapstructure:"table_prefix"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// ModelConfig is the configuration for the factorization model.
type ModelConfig struct {
	NFactors     int   `mapstructure:"n_factors" validate:"gt=0"`
	NIter        int   `mapstructure:"n_iter" validate:"gte=0"`
	NOversamples int   `mapstructure:"n_oversamples" validate:"gte=0"`
	RandomState  int64 `mapstructure:"random_state"`
	FitJobs      int   `mapstructure:"fit_jobs" validate:"gt=0"`
}

// RecommendConfig is the configuration for recommendation and statistics.
type RecommendConfig struct {
	DefaultN      int `mapstructure:"default_n" validate:"gt=0"`
	UserListSize  int `mapstructure:"user_list_size" validate:"gt=0"`
	LikeThreshold int `mapstructure:"like_threshold" validate:"gte=1,lte=5"`
	NumFavorites  int `mapstructure:"num_favorites" validate:"gte=0"`
}

// ServerConfig is the configuration for the HTTP server.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port" validate:"gt=0,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DataStore: "movielens://ml-100k",
		},
		Model: ModelConfig{
			NFactors:     model.DefaultNFactors,
			NIter:        model.DefaultNIter,
			NOversamples: model.DefaultNOversamples,
			RandomState:  model.DefaultRandomState,
			FitJobs:      1,
		},
		Recommend: RecommendConfig{
			DefaultN:      10,
			UserListSize:  20,
			LikeThreshold: 4,
			NumFavorites:  3,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           5521,
			AllowedOrigins: []string{"*"},
		},
	}
}

// GetParams returns hyper-parameters of the factorization model.
func (c *ModelConfig) GetParams() model.Params {
	return model.Params{
		model.NFactors:     c.NFactors,
		model.NIter:        c.NIter,
		model.NOversamples: c.NOversamples,
		model.RandomState:  c.RandomState,
	}
}

func (c *ModelConfig) GetFitConfig() *model.FitConfig {
	return model.NewFitConfig().SetJobs(c.FitJobs)
}

// StorageOptions returns connection pool options of the data store.
func (c *DatabaseConfig) StorageOptions() []storage.Option {
	return []storage.Option{
		storage.WithMaxOpenConns(c.MaxOpenConns),
		storage.WithMaxIdleConns(c.MaxIdleConns),
		storage.WithConnMaxLifetime(c.ConnMaxLifetime),
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	v.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	v.SetDefault("database.max_open_conns", defaultConfig.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultConfig.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", defaultConfig.Database.ConnMaxLifetime)
	// [model]
	v.SetDefault("model.n_factors", defaultConfig.Model.NFactors)
	v.SetDefault("model.n_iter", defaultConfig.Model.NIter)
	v.SetDefault("model.n_oversamples", defaultConfig.Model.NOversamples)
	v.SetDefault("model.random_state", defaultConfig.Model.RandomState)
	v.SetDefault("model.fit_jobs", defaultConfig.Model.FitJobs)
	// [recommend]
	v.SetDefault("recommend.default_n", defaultConfig.Recommend.DefaultN)
	v.SetDefault("recommend.user_list_size", defaultConfig.Recommend.UserListSize)
	v.SetDefault("recommend.like_threshold", defaultConfig.Recommend.LikeThreshold)
	v.SetDefault("recommend.num_favorites", defaultConfig.Recommend.NumFavorites)
	// [server]
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
	v.SetDefault("server.allowed_origins", defaultConfig.Server.AllowedOrigins)
}

type configBinding struct {
	key string
	env string
}

func bindEnv(v *viper.Viper) error {
	bindings := []configBinding{
		{"database.data_store", "CINEMA_DATA_STORE"},
		{"database.table_prefix", "CINEMA_TABLE_PREFIX"},
		{"model.n_factors", "CINEMA_N_FACTORS"},
		{"model.random_state", "CINEMA_RANDOM_STATE"},
		{"model.fit_jobs", "CINEMA_FIT_JOBS"},
		{"server.host", "CINEMA_SERVER_HOST"},
		{"server.port", "CINEMA_SERVER_PORT"},
		{"server.allowed_origins", "CINEMA_ALLOWED_ORIGINS"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a TOML file. Defaults apply to missing
// keys and environment variables override the file. An empty path loads
// defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	if err := bindEnv(v); err != nil {
		return nil, errors.Trace(err)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config file %s", path)
		}
	}
	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("data_store", func(fl validator.FieldLevel) bool {
		prefixes := []string{
			storage.MovieLensPrefix,
			storage.MySQLPrefix,
			storage.PostgresPrefix,
			storage.PostgreSQLPrefix,
			storage.SQLitePrefix,
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(fl.Field().String(), prefix) {
				return true
			}
		}
		return false
	}); err != nil {
		return errors.Trace(err)
	}
	return validate.Struct(config)
}
