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

package model

import (
	"github.com/gorse-io/trustfuse/base"
)

// Model is the interface for all models. Any model in this
// package should implement it.
type Model interface {
	// Set parameters.
	SetParams(params Params)
	// Get parameters.
	GetParams() Params
	// Clear model weights
	Clear()
}

// BaseModel model must be included by every recommendation model. Hyper-parameters
// and the random generator are managed by the BaseModel model.
type BaseModel struct {
	Params Params               // Hyper-parameters
	rng    base.RandomGenerator // Random generator
}

// SetParams sets hyper-parameters for the BaseModel model. Parameters are copied so
// later changes to params do not leak into the model.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params.Copy()
	model.rng = base.NewRandomGenerator(model.Params.GetInt64(RandomState, 0))
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}
