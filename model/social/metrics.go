// Copyright 2025 gorse Project Authors
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

package social

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FitLoss = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "fit",
		Name:      "loss",
	})
	FitEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "fit",
		Name:      "epoch",
	})
	FitLearningRate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "fit",
		Name:      "learning_rate",
	})
	FitSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "fit",
		Name:      "seconds",
	})
	FitRMSE = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "fit",
		Name:      "rmse",
	})
	FitMAE = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "fit",
		Name:      "mae",
	})
	SimilarityCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "similarity",
		Name:      "cache_entries",
	})
	SimilarityComputedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trustfuse",
		Subsystem: "similarity",
		Name:      "computed_total",
	})
	TrustPropagationPasses = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "trust",
		Name:      "propagation_passes",
	})
	TrustPropagationSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustfuse",
		Subsystem: "trust",
		Name:      "propagation_seconds",
	})
)
