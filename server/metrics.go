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
package server

import (
	"github.com/gorse-io/cinema/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinema",
		Subsystem: "server",
		Name:      "recommend_seconds",
	}, []string{"kind"})
	StatsSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinema",
		Subsystem: "server",
		Name:      "stats_seconds",
	})
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Subsystem: "server",
		Name:      "requests_total",
	}, []string{"method", "status_code"})
	InitializeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinema",
		Subsystem: "engine",
		Name:      "initialize_seconds",
	})
	NumUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinema",
		Subsystem: "engine",
		Name:      "num_users",
	})
	NumItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinema",
		Subsystem: "engine",
		Name:      "num_items",
	})
	RatingDensity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinema",
		Subsystem: "engine",
		Name:      "rating_density",
	})
	Ready = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cinema",
		Subsystem: "engine",
		Name:      "ready",
	})
)

func updateEngineMetrics(e *engine.Engine) {
	nUsers, nItems := e.Shape()
	NumUsers.Set(float64(nUsers))
	NumItems.Set(float64(nItems))
	RatingDensity.Set(e.Density())
	Ready.Set(1)
}
