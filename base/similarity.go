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
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/stat"
)

// FuncCorrelation computes the correlation between a pair of sparse vectors. The second
// return value is the number of common indices the correlation is computed on.
type FuncCorrelation func(a, b *SparseVector) (float32, int)

// PearsonCorrelation computes the Pearson correlation coefficient between a pair of vectors
// restricted to their common indices. NaN is returned if there are less than two common
// indices or either side has zero variance.
func PearsonCorrelation(a, b *SparseVector) (float32, int) {
	x := make([]float64, 0)
	y := make([]float64, 0)
	a.ForIntersection(b, func(_ int32, a, b float32) {
		x = append(x, float64(a))
		y = append(y, float64(b))
	})
	if len(x) < 2 {
		return math32.NaN(), len(x)
	}
	return float32(stat.Correlation(x, y, nil)), len(x)
}
