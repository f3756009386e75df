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
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/gorse-io/trustfuse/base"
	"github.com/gorse-io/trustfuse/base/encoding"
	"github.com/gorse-io/trustfuse/base/log"
	"github.com/gorse-io/trustfuse/base/progress"
	"github.com/gorse-io/trustfuse/common/floats"
	"github.com/gorse-io/trustfuse/dataset"
	"github.com/gorse-io/trustfuse/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const modelName = "trustfuse"

type Score struct {
	RMSE float32
	MAE  float32
}

type FitConfig struct {
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

// TrustFuse is a matrix factorization model regularized by the social graph. The latent
// factor of a user is pulled toward the latent factors of users it trusts, weighted by
// rating similarities and propagated trust weights:
//
//	L = 1/2 \sum_{(u,j)} (p_u^T q_j - r_uj)^2 + regU |p_u|^2 + regI |q_j|^2
//	  + 1/2 \beta \sum_u \sum_{k \in F(u)} s_uk |p_u - w_k p_k|^2
//
// where w_k is the trust weight of k normalized among trustees of u.
//
// Hyper-parameters:
//
//	 Beta		- The weight of social regularization. Required.
//	 RegU		- The regularization of user factors. Default is 0.01.
//	 RegI		- The regularization of item factors. Default is 0.01.
//	 Lr 		- The learning rate of gradient descent. Default is 0.01.
//	 NFactors	- The number of latent factors. Default is 10.
//	 NEpochs	- The number of epochs. Default is 100.
//	 IterNum	- The max passes of trust propagation. Default is 1000.
//	 DampingFactor	- The damping factor of trust propagation. Default is 0.85.
//	 MinDelta	- Trust propagation stops once weights change less than it. Default is 1e-4.
//	 Propagation	- The source selection of trust propagation. Default is "incoming".
//	 Shrinkage	- The shrinkage of correlations. Default is 0.
//	 Tolerance	- Training stops once the loss decreases less than it. Default is 1e-5.
//	 InitByNorm	- Initialize factors by gaussian instead of uniform. Default is false.
type TrustFuse struct {
	model.BaseModel
	UserIndex       *dataset.FreqDict
	ItemIndex       *dataset.FreqDict
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
	GlobalMean      float32
	MinRating       float32
	MaxRating       float32
	// Model parameters
	UserFactor [][]float32 // p_u
	ItemFactor [][]float32 // q_j
	// Hyper parameters
	beta        float32
	regU        float32
	regI        float32
	lr          float32
	nFactors    int
	nEpochs     int
	iterNum     int
	damping     float32
	minDelta    float32
	propagation PropagationMode
	shrinkage   float32
	tolerance   float32
	boldDriver  bool
	decay       float32
	maxLr       float32
	initByNorm  bool
	initMean    float32
	initStdDev  float32
	initLow     float32
	initHigh    float32
	// Training states
	similarity *SimilarityCache
	trust      *TrustPropagator
	learnRate  float32
	loss       float32
	lastLoss   float32
	history    []float32
}

// NewTrustFuse creates a TrustFuse model.
func NewTrustFuse(params model.Params) *TrustFuse {
	tf := new(TrustFuse)
	tf.SetParams(params)
	return tf
}

// SetParams sets hyper-parameters of the TrustFuse model.
func (tf *TrustFuse) SetParams(params model.Params) {
	tf.BaseModel.SetParams(params)
	tf.beta = tf.Params.GetFloat32(model.Beta, 0)
	tf.regU = tf.Params.GetFloat32(model.RegU, 0.01)
	tf.regI = tf.Params.GetFloat32(model.RegI, 0.01)
	tf.lr = tf.Params.GetFloat32(model.Lr, 0.01)
	tf.nFactors = tf.Params.GetInt(model.NFactors, 10)
	tf.nEpochs = tf.Params.GetInt(model.NEpochs, 100)
	tf.iterNum = tf.Params.GetInt(model.IterNum, 1000)
	tf.damping = tf.Params.GetFloat32(model.DampingFactor, 0.85)
	tf.minDelta = tf.Params.GetFloat32(model.MinDelta, 1e-4)
	tf.shrinkage = tf.Params.GetFloat32(model.Shrinkage, 0)
	tf.tolerance = tf.Params.GetFloat32(model.Tolerance, 1e-5)
	tf.boldDriver = tf.Params.GetBool(model.BoldDriver, false)
	tf.decay = tf.Params.GetFloat32(model.Decay, 0)
	tf.maxLr = tf.Params.GetFloat32(model.MaxLr, 0)
	tf.initByNorm = tf.Params.GetBool(model.InitByNorm, false)
	tf.initMean = tf.Params.GetFloat32(model.InitMean, 0)
	tf.initStdDev = tf.Params.GetFloat32(model.InitStdDev, 0.1)
	tf.initLow = tf.Params.GetFloat32(model.InitLow, 0)
	tf.initHigh = tf.Params.GetFloat32(model.InitHigh, 1)
	mode, err := ParsePropagationMode(tf.Params.GetString(model.Propagation, ""))
	if err != nil {
		log.Logger().Error("invalid propagation mode", zap.Error(err))
	}
	tf.propagation = mode
}

func (tf *TrustFuse) validate() error {
	if !tf.Params.Has(model.Beta) {
		return errors.NewNotValid(nil, "hyper-parameter Beta is required")
	}
	if _, err := ParsePropagationMode(tf.Params.GetString(model.Propagation, "")); err != nil {
		return errors.Trace(err)
	}
	if tf.nFactors <= 0 {
		return errors.NotValidf("%s = %d", model.NFactors, tf.nFactors)
	}
	if tf.damping < 0 || tf.damping > 1 {
		return errors.NotValidf("%s = %v", model.DampingFactor, tf.damping)
	}
	return nil
}

// Init allocates factors and training states for a training set.
func (tf *TrustFuse) Init(trainSet *dataset.Dataset) {
	numUsers, numItems := trainSet.CountUsers(), trainSet.CountItems()
	if tf.initByNorm {
		tf.UserFactor = tf.GetRandomGenerator().NormalMatrix(numUsers, tf.nFactors, tf.initMean, tf.initStdDev)
		tf.ItemFactor = tf.GetRandomGenerator().NormalMatrix(numItems, tf.nFactors, tf.initMean, tf.initStdDev)
	} else {
		tf.UserFactor = tf.GetRandomGenerator().UniformMatrix(numUsers, tf.nFactors, tf.initLow, tf.initHigh)
		tf.ItemFactor = tf.GetRandomGenerator().UniformMatrix(numItems, tf.nFactors, tf.initLow, tf.initHigh)
	}
	tf.UserIndex = trainSet.GetUserDict()
	tf.ItemIndex = trainSet.GetItemDict()
	graph := trainSet.GetSocialGraph()
	// users with ratings or trustees are trained
	tf.UserPredictable = bitset.New(uint(numUsers))
	for userIndex := int32(0); userIndex < int32(numUsers); userIndex++ {
		if trainSet.UserRow(userIndex).Len() > 0 || graph.OutDegree(userIndex) > 0 {
			tf.UserPredictable.Set(uint(userIndex))
		}
	}
	tf.ItemPredictable = bitset.New(uint(numItems))
	for itemIndex := int32(0); itemIndex < int32(numItems); itemIndex++ {
		if trainSet.ItemRow(itemIndex).Len() > 0 {
			tf.ItemPredictable.Set(uint(itemIndex))
		}
	}
	tf.GlobalMean = trainSet.GlobalMean()
	tf.MinRating, tf.MaxRating = trainSet.RatingRange()
	// reset training states
	tf.similarity = NewSimilarityCache(trainSet, tf.shrinkage)
	tf.trust = NewTrustPropagator(graph, numUsers, tf.iterNum, tf.damping, tf.minDelta, tf.propagation)
	tf.learnRate = tf.lr
	tf.loss, tf.lastLoss = 0, 0
	tf.history = nil
}

// Fit the TrustFuse model. Its task complexity is O(tf.nEpochs).
func (tf *TrustFuse) Fit(ctx context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) (Score, error) {
	if err := tf.validate(); err != nil {
		return Score{}, errors.Trace(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if config == nil {
		config = NewFitConfig()
	}
	log.Logger().Info("fit trustfuse",
		zap.Int("train_set_size", trainSet.CountRatings()),
		zap.Int("n_trust", trainSet.GetSocialGraph().CountEdges()),
		zap.String("params", tf.GetParams().ToString()),
		zap.Any("config", config))
	tf.Init(trainSet)
	fitStart := time.Now()
	userGrad := base.NewMatrix32(len(tf.UserFactor), tf.nFactors)
	itemGrad := base.NewMatrix32(len(tf.ItemFactor), tf.nFactors)
	_, span := progress.Start(ctx, "TrustFuse.Fit", tf.nEpochs)
	for epoch := 1; epoch <= tf.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return Score{}, errors.Trace(err)
		}
		epochStart := time.Now()
		floats.MatZero(userGrad)
		floats.MatZero(itemGrad)
		loss := tf.ratingGradient(trainSet, userGrad, itemGrad)
		loss += tf.socialGradient(trainSet.GetSocialGraph(), userGrad)
		tf.applyGradient(userGrad, itemGrad)
		tf.loss = loss * 0.5
		tf.history = append(tf.history, tf.loss)
		delta := tf.lastLoss - tf.loss
		learnRate := tf.learnRate
		converged, err := tf.isConverged(epoch)
		FitLoss.Set(float64(tf.loss))
		FitEpoch.Set(float64(epoch))
		FitLearningRate.Set(float64(tf.learnRate))
		span.Add(1)
		if err != nil {
			span.Fail(err)
			return Score{}, errors.Trace(err)
		}
		if (config.Verbose > 0 && epoch%config.Verbose == 0) || converged || epoch == tf.nEpochs {
			log.Logger().Info(fmt.Sprintf("fit trustfuse %v/%v", epoch, tf.nEpochs),
				zap.String("fit_time", time.Since(epochStart).String()),
				zap.Float32("loss", tf.loss),
				zap.Float32("delta", delta),
				zap.Float32("lr", learnRate),
				zap.Int("n_similarities", tf.similarity.Len()))
		}
		if converged {
			log.Logger().Info("trustfuse converged", zap.Int("epoch", epoch), zap.Float32("loss", tf.loss))
			break
		}
	}
	span.End()
	FitSeconds.Set(time.Since(fitStart).Seconds())
	var score Score
	if testSet != nil && testSet.CountRatings() > 0 {
		scores := Evaluate(tf, testSet, RMSE, MAE)
		score = Score{RMSE: scores[0], MAE: scores[1]}
		FitRMSE.Set(float64(score.RMSE))
		FitMAE.Set(float64(score.MAE))
	}
	log.Logger().Info("fit trustfuse complete",
		zap.Int("n_epochs", len(tf.history)),
		zap.Int("n_propagation_passes", tf.trust.Passes()),
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("MAE", score.MAE))
	return score, nil
}

// ratingGradient accumulates gradients of rating errors and regularization.
func (tf *TrustFuse) ratingGradient(trainSet *dataset.Dataset, userGrad, itemGrad [][]float32) float32 {
	var loss float32
	trainSet.ForEach(func(userIndex, itemIndex int32, rating float32) {
		userFactor, itemFactor := tf.UserFactor[userIndex], tf.ItemFactor[itemIndex]
		e := tf.internalPredict(userIndex, itemIndex) - rating
		loss += e * e
		// e q_j + regU p_u
		floats.MulConstAdd(itemFactor, e, userGrad[userIndex])
		floats.MulConstAdd(userFactor, tf.regU, userGrad[userIndex])
		// e p_u + regI q_j
		floats.MulConstAdd(userFactor, e, itemGrad[itemIndex])
		floats.MulConstAdd(itemFactor, tf.regI, itemGrad[itemIndex])
		loss += tf.regU*floats.Dot(userFactor, userFactor) + tf.regI*floats.Dot(itemFactor, itemFactor)
	})
	return loss
}

// socialGradient accumulates gradients of social regularization. Only gradients of
// trustors are updated.
func (tf *TrustFuse) socialGradient(graph *dataset.SocialGraph, userGrad [][]float32) float32 {
	var loss float32
	diff := make([]float32, tf.nFactors)
	for userIndex := int32(0); int(userIndex) < len(tf.UserFactor); userIndex++ {
		trustees := graph.Neighbors(userIndex)
		if trustees.Len() == 0 {
			continue
		}
		var sumWeight float32
		trustees.ForEach(func(_ int, k int32, _ float32) {
			sumWeight += tf.trust.WeightOf(k)
		})
		if sumWeight == 0 || math32.IsNaN(sumWeight) || math32.IsInf(sumWeight, 0) {
			continue
		}
		trustees.ForEach(func(_ int, k int32, _ float32) {
			sim := tf.similarity.Similarity(userIndex, k)
			if math32.IsNaN(sim) {
				return
			}
			w := tf.trust.WeightOf(k) / sumWeight
			// p_u - w_k p_k
			floats.MulConstTo(tf.UserFactor[k], w, diff)
			floats.SubTo(tf.UserFactor[userIndex], diff, diff)
			floats.MulConstAdd(diff, tf.beta*sim, userGrad[userIndex])
			loss += tf.beta * sim * floats.Dot(diff, diff)
		})
	}
	return loss
}

func (tf *TrustFuse) applyGradient(userGrad, itemGrad [][]float32) {
	for userIndex := range tf.UserFactor {
		floats.MulConstAdd(userGrad[userIndex], -tf.learnRate, tf.UserFactor[userIndex])
	}
	for itemIndex := range tf.ItemFactor {
		floats.MulConstAdd(itemGrad[itemIndex], -tf.learnRate, tf.ItemFactor[itemIndex])
	}
}

// isConverged checks the loss of an epoch. The learning rate is updated if not converged.
func (tf *TrustFuse) isConverged(epoch int) (bool, error) {
	if math32.IsNaN(tf.loss) || math32.IsInf(tf.loss, 0) {
		return false, errors.Errorf("loss is %v at epoch %d, hyper-parameters do not fit the dataset", tf.loss, epoch)
	}
	delta := tf.lastLoss - tf.loss
	converged := math32.Abs(tf.loss) < tf.tolerance || (delta > 0 && delta < tf.tolerance)
	if !converged {
		tf.updateLearnRate(epoch)
	}
	tf.lastLoss = tf.loss
	return converged, nil
}

func (tf *TrustFuse) updateLearnRate(epoch int) {
	if tf.learnRate <= 0 {
		return
	}
	if tf.boldDriver && epoch > 1 {
		if math32.Abs(tf.lastLoss) > math32.Abs(tf.loss) {
			tf.learnRate *= 1.05
		} else {
			tf.learnRate *= 0.5
		}
	} else if tf.decay > 0 && tf.decay < 1 {
		tf.learnRate *= tf.decay
	}
	if tf.maxLr > 0 && tf.learnRate > tf.maxLr {
		tf.learnRate = tf.maxLr
	}
}

// Similarity returns the similarity between two users in the training set.
func (tf *TrustFuse) Similarity(u, v int32) float32 {
	return tf.similarity.Similarity(u, v)
}

// TrustWeight returns the propagated trust weight of a user in the training set.
func (tf *TrustFuse) TrustWeight(u int32) float32 {
	return tf.trust.WeightOf(u)
}

// Loss returns the loss of the last epoch.
func (tf *TrustFuse) Loss() float32 {
	return tf.loss
}

// IsUserPredictable returns false if user has neither ratings nor trustees.
func (tf *TrustFuse) IsUserPredictable(userIndex int32) bool {
	if tf.UserIndex == nil || userIndex >= tf.UserIndex.Count() || userIndex < 0 {
		return false
	}
	return tf.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if item has no ratings.
func (tf *TrustFuse) IsItemPredictable(itemIndex int32) bool {
	if tf.ItemIndex == nil || itemIndex >= tf.ItemIndex.Count() || itemIndex < 0 {
		return false
	}
	return tf.ItemPredictable.Test(uint(itemIndex))
}

// Predict the rating given by a user (userId) to an item (itemId).
func (tf *TrustFuse) Predict(userId, itemId string) float32 {
	userIndex := tf.UserIndex.Index(userId)
	itemIndex := tf.ItemIndex.Index(itemId)
	if userIndex < 0 {
		log.Logger().Warn("unknown user", zap.String("user_id", userId))
	}
	if itemIndex < 0 {
		log.Logger().Warn("unknown item", zap.String("item_id", itemId))
	}
	return tf.PredictIndex(userIndex, itemIndex)
}

// PredictIndex predicts a rating by dense indices. The prediction is clipped to the range
// of training ratings. The global mean is returned for untrained users or items.
func (tf *TrustFuse) PredictIndex(userIndex, itemIndex int32) float32 {
	if !tf.IsUserPredictable(userIndex) || !tf.IsItemPredictable(itemIndex) {
		return tf.GlobalMean
	}
	prediction := tf.internalPredict(userIndex, itemIndex)
	return math32.Max(tf.MinRating, math32.Min(tf.MaxRating, prediction))
}

func (tf *TrustFuse) internalPredict(userIndex, itemIndex int32) float32 {
	return floats.Dot(tf.UserFactor[userIndex], tf.ItemFactor[itemIndex])
}

func (tf *TrustFuse) Clear() {
	tf.UserIndex = nil
	tf.ItemIndex = nil
	tf.UserFactor = nil
	tf.ItemFactor = nil
	tf.similarity = nil
	tf.trust = nil
	tf.history = nil
}

func (tf *TrustFuse) Invalid() bool {
	return tf == nil ||
		tf.UserIndex == nil ||
		tf.ItemIndex == nil ||
		tf.UserFactor == nil ||
		tf.ItemFactor == nil
}

// Marshal model into byte stream.
func (tf *TrustFuse) Marshal(w io.Writer) error {
	if err := encoding.WriteString(w, modelName); err != nil {
		return errors.Trace(err)
	}
	// write params
	if err := encoding.WriteGob(w, tf.Params); err != nil {
		return errors.Trace(err)
	}
	// write indices
	if err := encoding.WriteStrings(w, tf.UserIndex.ToSlice()); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteStrings(w, tf.ItemIndex.ToSlice()); err != nil {
		return errors.Trace(err)
	}
	// write rating statistics
	if err := binary.Write(w, binary.LittleEndian, []float32{tf.GlobalMean, tf.MinRating, tf.MaxRating}); err != nil {
		return errors.Trace(err)
	}
	// write predictable flags
	if _, err := tf.UserPredictable.WriteTo(w); err != nil {
		return errors.Trace(err)
	}
	if _, err := tf.ItemPredictable.WriteTo(w); err != nil {
		return errors.Trace(err)
	}
	// write latent factors
	if err := encoding.WriteMatrix(w, tf.UserFactor); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, tf.ItemFactor); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Unmarshal model from byte stream.
func (tf *TrustFuse) Unmarshal(r io.Reader) error {
	name, err := encoding.ReadString(r)
	if err != nil {
		return errors.Trace(err)
	}
	if name != modelName {
		return errors.Errorf("unknown model %v", name)
	}
	// read params
	var params model.Params
	if err = encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	tf.SetParams(params)
	// read indices
	userIds, err := encoding.ReadStrings(r)
	if err != nil {
		return errors.Trace(err)
	}
	tf.UserIndex = dataset.NewFreqDictFromSlice(userIds)
	itemIds, err := encoding.ReadStrings(r)
	if err != nil {
		return errors.Trace(err)
	}
	tf.ItemIndex = dataset.NewFreqDictFromSlice(itemIds)
	// read rating statistics
	stats := make([]float32, 3)
	if err = binary.Read(r, binary.LittleEndian, stats); err != nil {
		return errors.Trace(err)
	}
	tf.GlobalMean, tf.MinRating, tf.MaxRating = stats[0], stats[1], stats[2]
	// read predictable flags
	tf.UserPredictable = new(bitset.BitSet)
	if _, err = tf.UserPredictable.ReadFrom(r); err != nil {
		return errors.Trace(err)
	}
	tf.ItemPredictable = new(bitset.BitSet)
	if _, err = tf.ItemPredictable.ReadFrom(r); err != nil {
		return errors.Trace(err)
	}
	// read latent factors
	if tf.nFactors <= 0 {
		return errors.NotValidf("%s = %d", model.NFactors, tf.nFactors)
	}
	tf.UserFactor = base.NewMatrix32(len(userIds), tf.nFactors)
	if err = encoding.ReadMatrix(r, tf.UserFactor); err != nil {
		return errors.Trace(err)
	}
	tf.ItemFactor = base.NewMatrix32(len(itemIds), tf.nFactors)
	if err = encoding.ReadMatrix(r, tf.ItemFactor); err != nil {
		return errors.Trace(err)
	}
	for _, factors := range [][][]float32{tf.UserFactor, tf.ItemFactor} {
		for _, factor := range factors {
			if !floats.IsFinite(factor) {
				return errors.NotValidf("non-finite latent factor")
			}
		}
	}
	return nil
}
