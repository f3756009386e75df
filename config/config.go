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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/trustfuse/model"
	"github.com/gorse-io/trustfuse/model/social"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for training.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Model  ModelConfig  `mapstructure:"model"`
	Fit    FitConfig    `mapstructure:"fit"`
	Output OutputConfig `mapstructure:"output"`
}

// DataConfig is the configuration for datasets.
type DataConfig struct {
	Ratings     string  `mapstructure:"ratings" validate:"required"`
	Trust       string  `mapstructure:"trust"`
	Sep         string  `mapstructure:"sep"`
	Header      bool    `mapstructure:"header"`
	TestRatio   float32 `mapstructure:"test_ratio" validate:"gte=0,lt=1"`
	RandomState int64   `mapstructure:"random_state"`
}

// ModelConfig is the configuration for hyper-parameters.
type ModelConfig struct {
	Beta          *float32 `mapstructure:"beta" validate:"required"`
	NFactors      int      `mapstructure:"n_factors" validate:"gt=0"`
	NEpochs       int      `mapstructure:"n_epochs" validate:"gt=0"`
	Lr            float32  `mapstructure:"lr" validate:"gt=0"`
	RegU          float32  `mapstructure:"reg_u" validate:"gte=0"`
	RegI          float32  `mapstructure:"reg_i" validate:"gte=0"`
	IterNum       int      `mapstructure:"iter_num" validate:"gte=0"`
	DampingFactor float32  `mapstructure:"damping_factor" validate:"gte=0,lte=1"`
	MinDelta      float32  `mapstructure:"min_delta" validate:"gte=0"`
	Propagation   string   `mapstructure:"propagation" validate:"oneof=incoming pass_row"`
	Shrinkage     float32  `mapstructure:"shrinkage" validate:"gte=0"`
	Tolerance     float32  `mapstructure:"tolerance" validate:"gte=0"`
	BoldDriver    bool     `mapstructure:"bold_driver"`
	Decay         float32  `mapstructure:"decay" validate:"gte=0,lte=1"`
	MaxLr         float32  `mapstructure:"max_lr" validate:"gte=0"`
	InitByNorm    bool     `mapstructure:"init_by_norm"`
	InitMean      float32  `mapstructure:"init_mean"`
	InitStdDev    float32  `mapstructure:"init_std_dev" validate:"gte=0"`
	InitLow       float32  `mapstructure:"init_low"`
	InitHigh      float32  `mapstructure:"init_high" validate:"gtefield=InitLow"`
	RandomState   int64    `mapstructure:"random_state"`
}

type FitConfig struct {
	Verbose int `mapstructure:"verbose" validate:"gte=0"`
}

type OutputConfig struct {
	ModelPath   string `mapstructure:"model_path"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// GetDefaultConfig returns the default configuration. Beta and the rating file have no
// defaults.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Sep:       ",",
			TestRatio: 0.2,
		},
		Model: ModelConfig{
			NFactors:      10,
			NEpochs:       100,
			Lr:            0.01,
			RegU:          0.01,
			RegI:          0.01,
			IterNum:       1000,
			DampingFactor: 0.85,
			MinDelta:      1e-4,
			Propagation:   string(social.PropagateIncoming),
			Tolerance:     1e-5,
			InitStdDev:    0.1,
			InitHigh:      1,
		},
		Fit: FitConfig{
			Verbose: 10,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.ratings", defaultConfig.Data.Ratings)
	v.SetDefault("data.trust", defaultConfig.Data.Trust)
	v.SetDefault("data.sep", defaultConfig.Data.Sep)
	v.SetDefault("data.header", defaultConfig.Data.Header)
	v.SetDefault("data.test_ratio", defaultConfig.Data.TestRatio)
	v.SetDefault("data.random_state", defaultConfig.Data.RandomState)
	// [model]
	v.SetDefault("model.n_factors", defaultConfig.Model.NFactors)
	v.SetDefault("model.n_epochs", defaultConfig.Model.NEpochs)
	v.SetDefault("model.lr", defaultConfig.Model.Lr)
	v.SetDefault("model.reg_u", defaultConfig.Model.RegU)
	v.SetDefault("model.reg_i", defaultConfig.Model.RegI)
	v.SetDefault("model.iter_num", defaultConfig.Model.IterNum)
	v.SetDefault("model.damping_factor", defaultConfig.Model.DampingFactor)
	v.SetDefault("model.min_delta", defaultConfig.Model.MinDelta)
	v.SetDefault("model.propagation", defaultConfig.Model.Propagation)
	v.SetDefault("model.shrinkage", defaultConfig.Model.Shrinkage)
	v.SetDefault("model.tolerance", defaultConfig.Model.Tolerance)
	v.SetDefault("model.bold_driver", defaultConfig.Model.BoldDriver)
	v.SetDefault("model.decay", defaultConfig.Model.Decay)
	v.SetDefault("model.max_lr", defaultConfig.Model.MaxLr)
	v.SetDefault("model.init_by_norm", defaultConfig.Model.InitByNorm)
	v.SetDefault("model.init_mean", defaultConfig.Model.InitMean)
	v.SetDefault("model.init_std_dev", defaultConfig.Model.InitStdDev)
	v.SetDefault("model.init_low", defaultConfig.Model.InitLow)
	v.SetDefault("model.init_high", defaultConfig.Model.InitHigh)
	v.SetDefault("model.random_state", defaultConfig.Model.RandomState)
	// [fit]
	v.SetDefault("fit.verbose", defaultConfig.Fit.Verbose)
	// [output]
	v.SetDefault("output.model_path", defaultConfig.Output.ModelPath)
	v.SetDefault("output.metrics_path", defaultConfig.Output.MetricsPath)
}

// LoadConfig loads configuration from a toml file. Values could be overwritten by
// environment variables such as TRUSTFUSE_MODEL_BETA.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	// bind environment variables
	v.SetEnvPrefix("trustfuse")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("model.beta"); err != nil {
		return nil, errors.Trace(err)
	}
	// load config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	// unmarshal config file
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	// validate config file
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}

// ToParams converts the model configuration to hyper-parameters.
func (config *ModelConfig) ToParams() model.Params {
	params := model.Params{
		model.NFactors:      config.NFactors,
		model.NEpochs:       config.NEpochs,
		model.Lr:            config.Lr,
		model.RegU:          config.RegU,
		model.RegI:          config.RegI,
		model.IterNum:       config.IterNum,
		model.DampingFactor: config.DampingFactor,
		model.MinDelta:      config.MinDelta,
		model.Propagation:   config.Propagation,
		model.Shrinkage:     config.Shrinkage,
		model.Tolerance:     config.Tolerance,
		model.BoldDriver:    config.BoldDriver,
		model.Decay:         config.Decay,
		model.MaxLr:         config.MaxLr,
		model.InitByNorm:    config.InitByNorm,
		model.InitMean:      config.InitMean,
		model.InitStdDev:    config.InitStdDev,
		model.InitLow:       config.InitLow,
		model.InitHigh:      config.InitHigh,
		model.RandomState:   config.RandomState,
	}
	if config.Beta != nil {
		params[model.Beta] = *config.Beta
	}
	return params
}

// FitConfig creates the fitting configuration of the model.
func (config *Config) FitConfig() *social.FitConfig {
	return social.NewFitConfig().SetVerbose(config.Fit.Verbose)
}
