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
	"github.com/gorse-io/trustfuse/base"
	"github.com/gorse-io/trustfuse/dataset"
	"github.com/stretchr/testify/assert"
)

// newSimilarityDataset creates users:
//
//	0: 5 3 1
//	1: 4 3 2 (same trend as 0)
//	2: 1 3 5 (opposite trend to 0)
//	3: 2 - -
//	4: no ratings
func newSimilarityDataset() *dataset.Dataset {
	ds := dataset.NewDataset()
	for _, r := range []struct {
		user, item string
		rating     float32
	}{
		{"0", "a", 5}, {"0", "b", 3}, {"0", "c", 1},
		{"1", "a", 4}, {"1", "b", 3}, {"1", "c", 2},
		{"2", "a", 1}, {"2", "b", 3}, {"2", "c", 5},
		{"3", "a", 2},
	} {
		ds.AddRating(r.user, r.item, r.rating)
	}
	ds.AddTrust("0", "4", 1)
	return ds
}

func TestSimilarityCache_Similarity(t *testing.T) {
	cache := NewSimilarityCache(newSimilarityDataset(), 0)
	assert.InDelta(t, 1, cache.Similarity(0, 1), 1e-6)
	assert.InDelta(t, 0, cache.Similarity(0, 2), 1e-6)
	// less than two co-rated items
	assert.True(t, math32.IsNaN(cache.Similarity(0, 3)))
	// no ratings
	assert.True(t, math32.IsNaN(cache.Similarity(4, 0)))
	assert.True(t, math32.IsNaN(cache.Similarity(0, 4)))
	for u := int32(0); u < 5; u++ {
		for v := int32(0); v < 5; v++ {
			sim := cache.Similarity(u, v)
			if !math32.IsNaN(sim) {
				assert.GreaterOrEqual(t, sim, float32(0))
				assert.LessOrEqual(t, sim, float32(1))
			}
		}
	}
}

func TestSimilarityCache_Symmetry(t *testing.T) {
	cache := NewSimilarityCache(newSimilarityDataset(), 0)
	a := cache.Similarity(1, 2)
	b := cache.Similarity(2, 1)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, cache.Misses())
	assert.Equal(t, 1, cache.Len())
}

func TestSimilarityCache_Memoization(t *testing.T) {
	calls := 0
	cache := NewSimilarityCache(newSimilarityDataset(), 0)
	cache.SetCorrelation(func(a, b *base.SparseVector) (float32, int) {
		calls++
		return base.PearsonCorrelation(a, b)
	})
	for i := 0; i < 3; i++ {
		cache.Similarity(0, 1)
		cache.Similarity(1, 0)
		cache.Similarity(0, 3)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, cache.Misses())
	assert.Equal(t, 2, cache.Len())

	cache.Reset()
	assert.Zero(t, cache.Len())
	assert.Zero(t, cache.Misses())
	cache.Similarity(0, 1)
	assert.Equal(t, 3, calls)
}

func TestSimilarityCache_OutOfRange(t *testing.T) {
	calls := 0
	cache := NewSimilarityCache(newSimilarityDataset(), 0)
	cache.SetCorrelation(func(a, b *base.SparseVector) (float32, int) {
		calls++
		return 0, 0
	})
	assert.True(t, math32.IsNaN(cache.Similarity(0, 100)))
	assert.True(t, math32.IsNaN(cache.Similarity(-1, 0)))
	assert.True(t, math32.IsNaN(cache.Similarity(100, 1)))
	assert.Zero(t, calls)
	// undefined similarities are cached as well
	assert.Equal(t, 3, cache.Len())
}

func TestSimilarityCache_Shrinkage(t *testing.T) {
	cache := NewSimilarityCache(newSimilarityDataset(), 3)
	// pcc = 1 * 3 / (3 + 3)
	assert.InDelta(t, 0.75, cache.Similarity(0, 1), 1e-6)
	assert.InDelta(t, 0.25, cache.Similarity(0, 2), 1e-6)
}

func TestSimilarityCache_Clamp(t *testing.T) {
	cache := NewSimilarityCache(newSimilarityDataset(), 0)
	cache.SetCorrelation(func(a, b *base.SparseVector) (float32, int) {
		return 1.5, 3
	})
	assert.Equal(t, float32(1), cache.Similarity(0, 1))
}
