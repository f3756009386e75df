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
	"github.com/gorse-io/trustfuse/dataset"
)

// RatingPredictor predicts ratings by dense user and item indices.
type RatingPredictor interface {
	PredictIndex(userIndex, itemIndex int32) float32
}

// Evaluator evaluates the performance of a predictor on the test set.
type Evaluator func(RatingPredictor, *dataset.Dataset) float32

// RMSE is root mean square error.
func RMSE(predictor RatingPredictor, testSet *dataset.Dataset) float32 {
	if testSet.CountRatings() == 0 {
		return 0
	}
	var sum float32
	testSet.ForEach(func(userIndex, itemIndex int32, rating float32) {
		prediction := predictor.PredictIndex(userIndex, itemIndex)
		sum += (prediction - rating) * (prediction - rating)
	})
	return math32.Sqrt(sum / float32(testSet.CountRatings()))
}

// MAE is mean absolute error.
func MAE(predictor RatingPredictor, testSet *dataset.Dataset) float32 {
	if testSet.CountRatings() == 0 {
		return 0
	}
	var sum float32
	testSet.ForEach(func(userIndex, itemIndex int32, rating float32) {
		sum += math32.Abs(predictor.PredictIndex(userIndex, itemIndex) - rating)
	})
	return sum / float32(testSet.CountRatings())
}

// Evaluate a predictor by evaluators.
func Evaluate(predictor RatingPredictor, testSet *dataset.Dataset, evaluators ...Evaluator) []float32 {
	scores := make([]float32, len(evaluators))
	for i, evaluator := range evaluators {
		scores[i] = evaluator(predictor, testSet)
	}
	return scores
}
