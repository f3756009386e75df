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
	"github.com/chewxy/math32"
	"github.com/gorse-io/trustfuse/base"
	"github.com/gorse-io/trustfuse/dataset"
	"github.com/samber/lo"
)

// SimilarityCache memoizes similarities between users. The similarity of two users is
// the Pearson correlation of their ratings on co-rated items, mapped from [-1, 1] to
// [0, 1]. NaN means the similarity is undefined, and it is cached as well.
type SimilarityCache struct {
	ratings     *dataset.Dataset
	correlation base.FuncCorrelation
	shrinkage   float32
	values      map[lo.Tuple2[int32, int32]]float32
	misses      int
}

func NewSimilarityCache(ratings *dataset.Dataset, shrinkage float32) *SimilarityCache {
	return &SimilarityCache{
		ratings:     ratings,
		correlation: base.PearsonCorrelation,
		shrinkage:   shrinkage,
		values:      make(map[lo.Tuple2[int32, int32]]float32),
	}
}

// SetCorrelation replaces the correlation function.
func (c *SimilarityCache) SetCorrelation(correlation base.FuncCorrelation) {
	c.correlation = correlation
}

// Similarity returns the similarity between user u and user v. The pair is looked up in
// both orders and computed at most once.
func (c *SimilarityCache) Similarity(u, v int32) float32 {
	if sim, ok := c.values[lo.T2(u, v)]; ok {
		return sim
	}
	if sim, ok := c.values[lo.T2(v, u)]; ok {
		return sim
	}
	sim := c.compute(u, v)
	c.values[lo.T2(u, v)] = sim
	SimilarityCacheEntries.Set(float64(len(c.values)))
	return sim
}

func (c *SimilarityCache) compute(u, v int32) float32 {
	numRows := int32(c.ratings.NumRows())
	if u < 0 || v < 0 || u >= numRows || v >= numRows {
		return math32.NaN()
	}
	a := c.ratings.UserRow(u)
	if a.Len() == 0 {
		return math32.NaN()
	}
	c.misses++
	SimilarityComputedTotal.Inc()
	pcc, n := c.correlation(a, c.ratings.UserRow(v))
	if math32.IsNaN(pcc) {
		return pcc
	}
	if c.shrinkage > 0 {
		pcc *= float32(n) / (float32(n) + c.shrinkage)
	}
	sim := (1 + pcc) / 2
	return math32.Max(0, math32.Min(1, sim))
}

// Misses returns the number of correlations computed.
func (c *SimilarityCache) Misses() int {
	return c.misses
}

// Len returns the number of cached pairs.
func (c *SimilarityCache) Len() int {
	return len(c.values)
}

func (c *SimilarityCache) Reset() {
	c.values = make(map[lo.Tuple2[int32, int32]]float32)
	c.misses = 0
}
