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
	"testing"

	"github.com/chewxy/math32"
	"github.com/gorse-io/trustfuse/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func newGraph(n int, edges ...[2]int32) *dataset.SocialGraph {
	graph := dataset.NewSocialGraph()
	graph.Grow(n)
	for _, edge := range edges {
		graph.AddEdge(edge[0], edge[1], 1)
	}
	return graph
}

func TestParsePropagationMode(t *testing.T) {
	mode, err := ParsePropagationMode("")
	assert.NoError(t, err)
	assert.Equal(t, PropagateIncoming, mode)
	mode, err = ParsePropagationMode("incoming")
	assert.NoError(t, err)
	assert.Equal(t, PropagateIncoming, mode)
	mode, err = ParsePropagationMode("pass_row")
	assert.NoError(t, err)
	assert.Equal(t, PropagatePassRow, mode)
	_, err = ParsePropagationMode("outgoing")
	assert.True(t, errors.IsNotValid(err))
}

func TestTrustPropagator_Incoming(t *testing.T) {
	// a cycle converges to (1 - d) / n / (1 - d) = 1 / n
	graph := newGraph(3, [2]int32{0, 1}, [2]int32{1, 2}, [2]int32{2, 0})
	propagator := NewTrustPropagator(graph, 3, 1000, 0.85, 1e-4, PropagateIncoming)
	for u := int32(0); u < 3; u++ {
		assert.InDelta(t, 1.0/3.0, propagator.WeightOf(u), 1e-3)
	}
	assert.Equal(t, 1, propagator.Runs())
	assert.Less(t, propagator.Passes(), 1000)
	assert.Less(t, propagator.Diff(), float32(1e-4))
}

func TestTrustPropagator_RunOnce(t *testing.T) {
	graph := newGraph(3, [2]int32{0, 1}, [2]int32{1, 2})
	propagator := NewTrustPropagator(graph, 3, 1000, 0.85, 1e-4, PropagateIncoming)
	propagator.EnsurePropagated()
	propagator.EnsurePropagated()
	for i := 0; i < 10; i++ {
		propagator.WeightOf(int32(i % 3))
	}
	assert.Equal(t, 1, propagator.Runs())

	propagator.Reset()
	assert.Equal(t, 1, propagator.Runs())
	propagator.WeightOf(0)
	assert.Equal(t, 2, propagator.Runs())
}

func TestTrustPropagator_MaxPasses(t *testing.T) {
	graph := newGraph(3, [2]int32{0, 1}, [2]int32{1, 2}, [2]int32{2, 0})
	propagator := NewTrustPropagator(graph, 3, 2, 0.85, 0, PropagateIncoming)
	propagator.EnsurePropagated()
	assert.Equal(t, 2, propagator.Passes())
}

func TestTrustPropagator_SourceWithoutTrustees(t *testing.T) {
	// user 1 trusts nobody, so it passes nothing to others
	graph := newGraph(2, [2]int32{0, 1})
	propagator := NewTrustPropagator(graph, 2, 5, 0.85, 0, PropagatePassRow)
	assert.InDelta(t, 0.075, propagator.WeightOf(0), 1e-6)
	assert.InDelta(t, 0.075, propagator.WeightOf(1), 1e-6)
	assert.Equal(t, 5, propagator.Passes())
	assert.False(t, math32.IsNaN(propagator.Diff()))
}

func TestTrustPropagator_PassRow(t *testing.T) {
	graph := newGraph(2, [2]int32{0, 1}, [2]int32{1, 0})
	propagator := NewTrustPropagator(graph, 2, 2, 0.85, 0, PropagatePassRow)
	// pass 0 reads trustees of user 0, pass 1 reads trustees of user 1
	assert.InDelta(t, 0.86125, propagator.WeightOf(0), 1e-5)
	assert.InDelta(t, 0.8070625, propagator.WeightOf(1), 1e-5)

	// passes beyond the number of users read empty rows
	propagator = NewTrustPropagator(graph, 2, 3, 0.85, 0, PropagatePassRow)
	assert.InDelta(t, 0.075, propagator.WeightOf(0), 1e-6)
	assert.InDelta(t, 0.075, propagator.WeightOf(1), 1e-6)

	// incoming mode converges to 1 / n on the same graph
	propagator = NewTrustPropagator(graph, 2, 1000, 0.85, 1e-6, PropagateIncoming)
	assert.InDelta(t, 0.5, propagator.WeightOf(0), 1e-4)
	assert.InDelta(t, 0.5, propagator.WeightOf(1), 1e-4)
}

func TestTrustPropagator_OutOfRange(t *testing.T) {
	graph := newGraph(2, [2]int32{0, 1})
	propagator := NewTrustPropagator(graph, 2, 10, 0.85, 1e-4, PropagateIncoming)
	assert.True(t, math32.IsNaN(propagator.WeightOf(-1)))
	assert.True(t, math32.IsNaN(propagator.WeightOf(2)))
	// lookups out of range do not trigger propagation
	assert.Zero(t, propagator.Runs())
	assert.Zero(t, propagator.Passes())
	assert.False(t, math32.IsNaN(propagator.WeightOf(1)))
	assert.Equal(t, 1, propagator.Runs())
	assert.True(t, math32.IsNaN(propagator.WeightOf(2)))
	assert.Equal(t, 1, propagator.Runs())

	propagator = NewTrustPropagator(dataset.NewSocialGraph(), 0, 10, 0.85, 1e-4, PropagateIncoming)
	assert.True(t, math32.IsNaN(propagator.WeightOf(0)))
	assert.Zero(t, propagator.Passes())
	assert.Zero(t, propagator.Runs())
}
