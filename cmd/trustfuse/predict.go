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
	"bufio"
	"fmt"
	"os"

	"github.com/gorse-io/trustfuse/base/encoding"
	"github.com/gorse-io/trustfuse/model/social"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var predictCommand = &cobra.Command{
	Use:   "predict <user> <item>",
	Short: "Predict the rating of an item by a user.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelPath, _ := cmd.Flags().GetString("model")
		m, err := loadModel(modelPath)
		if err != nil {
			return errors.Trace(err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), encoding.FormatFloat32(m.Predict(args[0], args[1])))
		return errors.Trace(err)
	},
}

func init() {
	predictCommand.Flags().StringP("model", "m", "trustfuse.bin", "model file path")
}

func loadModel(path string) (*social.TrustFuse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	m := social.NewTrustFuse(nil)
	if err = m.Unmarshal(bufio.NewReader(f)); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}
