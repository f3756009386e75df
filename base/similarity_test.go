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

package base

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func newSparseVector(indices []int32, values []float32) *SparseVector {
	vec := NewSparseVector()
	for i := range indices {
		vec.Add(indices[i], values[i])
	}
	return vec
}

func TestPearsonCorrelation(t *testing.T) {
	a := newSparseVector([]int32{1, 2, 3, 4, 8}, []float32{1, 2, 3, 4, 9})
	b := newSparseVector([]int32{0, 1, 2, 3, 4}, []float32{7, 2, 4, 6, 8})
	pcc, n := PearsonCorrelation(a, b)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 1, pcc, 1e-6)
	// negative correlation
	c := newSparseVector([]int32{1, 2, 3}, []float32{5, 3, 1})
	pcc, n = PearsonCorrelation(a, c)
	assert.Equal(t, 3, n)
	assert.InDelta(t, -1, pcc, 1e-6)
	// symmetric
	ab, _ := PearsonCorrelation(a, b)
	ba, _ := PearsonCorrelation(b, a)
	assert.Equal(t, ab, ba)
}

func TestPearsonCorrelation_Undefined(t *testing.T) {
	// less than two common items
	a := newSparseVector([]int32{1, 2}, []float32{1, 2})
	b := newSparseVector([]int32{2, 3}, []float32{4, 5})
	pcc, n := PearsonCorrelation(a, b)
	assert.Equal(t, 1, n)
	assert.True(t, math32.IsNaN(pcc))
	// zero variance
	c := newSparseVector([]int32{1, 2}, []float32{4, 4})
	pcc, n = PearsonCorrelation(a, c)
	assert.Equal(t, 2, n)
	assert.True(t, math32.IsNaN(pcc))
	// empty vector
	pcc, n = PearsonCorrelation(NewSparseVector(), a)
	assert.Zero(t, n)
	assert.True(t, math32.IsNaN(pcc))
}
