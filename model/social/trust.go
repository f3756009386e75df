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
	"time"

	"github.com/chewxy/math32"
	"github.com/gorse-io/trustfuse/base"
	"github.com/gorse-io/trustfuse/base/log"
	"github.com/gorse-io/trustfuse/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// PropagationMode decides which users pass trust to a target user in each pass.
type PropagationMode string

const (
	// PropagateIncoming passes trust from users who trust the target.
	PropagateIncoming PropagationMode = "incoming"
	// PropagatePassRow passes trust from users trusted by the user whose index equals
	// the pass counter, whatever the target is.
	PropagatePassRow PropagationMode = "pass_row"
)

// ParsePropagationMode parses a propagation mode. An empty string means PropagateIncoming.
func ParsePropagationMode(s string) (PropagationMode, error) {
	switch PropagationMode(s) {
	case "", PropagateIncoming:
		return PropagateIncoming, nil
	case PropagatePassRow:
		return PropagatePassRow, nil
	}
	return "", errors.NotValidf("propagation mode %q", s)
}

// TrustPropagator computes a trust weight for every user by damped propagation over the
// social graph:
//
//	rank_j = (1 - d) / n + d * \sum_k t_k / outDegree(k)
//
// Weights are computed once by EnsurePropagated and reused until Reset.
type TrustPropagator struct {
	graph    *dataset.SocialGraph
	numUsers int
	iterNum  int
	damping  float32
	minDelta float32
	mode     PropagationMode

	weights []float32
	passes  int
	runs    int
	diff    float32
}

func NewTrustPropagator(graph *dataset.SocialGraph, numUsers, iterNum int, damping, minDelta float32, mode PropagationMode) *TrustPropagator {
	return &TrustPropagator{
		graph:    graph,
		numUsers: numUsers,
		iterNum:  iterNum,
		damping:  damping,
		minDelta: minDelta,
		mode:     mode,
	}
}

// EnsurePropagated runs propagation if it has not run yet.
func (t *TrustPropagator) EnsurePropagated() {
	if t.weights != nil {
		return
	}
	start := time.Now()
	t.runs++
	t.weights = base.RepeatFloat32s(t.numUsers, 1)
	t.passes = 0
	t.diff = 0
	if t.numUsers == 0 {
		return
	}
	minValue := (1 - t.damping) / float32(t.numUsers)
	for i := 0; i < t.iterNum; i++ {
		t.passes++
		diff := float32(0)
		for j := 0; j < t.numUsers; j++ {
			rank := minValue
			t.sources(i, j).ForEach(func(_ int, k int32, _ float32) {
				if outDegree := t.graph.OutDegree(k); outDegree > 0 {
					rank += t.damping * t.weights[k] / float32(outDegree)
				}
			})
			diff += math32.Abs(t.weights[j] - rank)
			t.weights[j] = rank
		}
		t.diff = diff
		if diff < t.minDelta {
			break
		}
	}
	TrustPropagationPasses.Set(float64(t.passes))
	TrustPropagationSeconds.Set(time.Since(start).Seconds())
	log.Logger().Debug("trust propagation complete",
		zap.String("mode", string(t.mode)),
		zap.Int("n_users", t.numUsers),
		zap.Int("passes", t.passes),
		zap.Float32("diff", t.diff))
}

func (t *TrustPropagator) sources(pass, target int) *base.SparseVector {
	if t.mode == PropagatePassRow {
		if pass >= t.numUsers {
			return base.NewSparseVector()
		}
		return t.graph.Neighbors(int32(pass))
	}
	return t.graph.InNeighbors(int32(target))
}

// WeightOf returns the trust weight of user u. NaN is returned for users out of range
// without running propagation.
func (t *TrustPropagator) WeightOf(u int32) float32 {
	if u < 0 || int(u) >= t.numUsers {
		return math32.NaN()
	}
	t.EnsurePropagated()
	return t.weights[u]
}

// Passes returns the number of passes executed by the last propagation.
func (t *TrustPropagator) Passes() int {
	return t.passes
}

// Runs returns the number of times propagation has run.
func (t *TrustPropagator) Runs() int {
	return t.runs
}

// Diff returns the total change of weights in the last pass.
func (t *TrustPropagator) Diff() float32 {
	return t.diff
}

// Reset drops computed weights. The next call to EnsurePropagated runs propagation again.
func (t *TrustPropagator) Reset() {
	t.weights = nil
}
