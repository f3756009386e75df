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

package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/gorse-io/trustfuse/base"
	"github.com/gorse-io/trustfuse/base/log"
	"github.com/gorse-io/trustfuse/base/progress"
	"github.com/gorse-io/trustfuse/config"
	"github.com/gorse-io/trustfuse/dataset"
	"github.com/gorse-io/trustfuse/model/social"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fitCommand = &cobra.Command{
	Use:   "fit",
	Short: "Fit a model on rating and trust data.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			return errors.Trace(err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			tracer := progress.NewTracer("trustfuse")
			var span *progress.Span
			ctx, span = tracer.Start(ctx, "fit", 1)
			defer span.End()
			done := make(chan struct{})
			defer close(done)
			go showProgress(tracer, conf.Model.NEpochs, done)
		}
		if _, err = fit(ctx, conf); err != nil {
			progress.Fail(ctx, err)
			return errors.Trace(err)
		}
		return nil
	},
}

func init() {
	fitCommand.Flags().StringP("config", "c", "", "configuration file path")
	fitCommand.Flags().BoolP("quiet", "q", false, "hide the progress bar")
}

// fit loads datasets, trains a model and writes outputs.
func fit(ctx context.Context, conf *config.Config) (*social.TrustFuse, error) {
	data, err := dataset.LoadDataFromCSV(conf.Data.Ratings, conf.Data.Trust, conf.Data.Sep, conf.Data.Header)
	if err != nil {
		return nil, errors.Trace(err)
	}
	trainSet, testSet := data.Split(conf.Data.TestRatio, base.NewRandomGenerator(conf.Data.RandomState))
	log.Logger().Info("split dataset",
		zap.Int("train_set_size", trainSet.CountRatings()),
		zap.Int("test_set_size", testSet.CountRatings()))
	m := social.NewTrustFuse(conf.Model.ToParams())
	score, err := m.Fit(ctx, trainSet, testSet, conf.FitConfig())
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("fit model complete",
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("MAE", score.MAE))
	if conf.Output.ModelPath != "" {
		if err = saveModel(conf.Output.ModelPath, m); err != nil {
			return nil, errors.Trace(err)
		}
		log.Logger().Info("save model", zap.String("path", conf.Output.ModelPath))
	}
	if conf.Output.MetricsPath != "" {
		if err = prometheus.WriteToTextfile(conf.Output.MetricsPath, prometheus.DefaultGatherer); err != nil {
			return nil, errors.Trace(err)
		}
		log.Logger().Info("write metrics", zap.String("path", conf.Output.MetricsPath))
	}
	return m, nil
}

func saveModel(path string, m *social.TrustFuse) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err = m.Marshal(f); err != nil {
		_ = f.Close()
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

func showProgress(tracer *progress.Tracer, total int, done <-chan struct{}) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("fit"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			_ = bar.Finish()
			return
		case <-ticker.C:
			for _, p := range tracer.List() {
				if p.Name == "TrustFuse.Fit" {
					_ = bar.Set(p.Count)
				}
			}
		}
	}
}
