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

package dataset

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/trustfuse/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// LoadDataFromCSV loads ratings and trust relations from two files. Each line of the
// rating file is
//
//	<user id> <sep> <item id> <sep> <rating>
//
// and each line of the trust file is
//
//	<trustor id> <sep> <trustee id> [<sep> <strength>]
//
// The trust strength is 1 if absent. Fields are split by white spaces if sep is empty.
// The trust file is optional.
func LoadDataFromCSV(ratingPath, trustPath, sep string, hasHeader bool) (*Dataset, error) {
	dataset := NewDataset()
	duplicateRatings := 0
	if err := readLines(ratingPath, sep, hasHeader, func(lineNo int, fields []string) error {
		if len(fields) < 3 {
			return errors.Errorf("%s:%d: expect 3 fields but get %d", ratingPath, lineNo, len(fields))
		}
		rating, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return errors.Annotatef(err, "%s:%d", ratingPath, lineNo)
		}
		if !dataset.AddRating(fields[0], fields[1], float32(rating)) {
			duplicateRatings++
		}
		return nil
	}); err != nil {
		return nil, errors.Trace(err)
	}
	if duplicateRatings > 0 {
		log.Logger().Warn("duplicated ratings overwritten",
			zap.String("path", ratingPath), zap.Int("n_duplicates", duplicateRatings))
	}
	if trustPath != "" {
		duplicates := 0
		if err := readLines(trustPath, sep, hasHeader, func(lineNo int, fields []string) error {
			if len(fields) < 2 {
				return errors.Errorf("%s:%d: expect 2 fields but get %d", trustPath, lineNo, len(fields))
			}
			value := float32(1)
			if len(fields) > 2 {
				v, err := strconv.ParseFloat(fields[2], 32)
				if err != nil {
					return errors.Annotatef(err, "%s:%d", trustPath, lineNo)
				}
				value = float32(v)
			}
			if !dataset.AddTrust(fields[0], fields[1], value) {
				duplicates++
			}
			return nil
		}); err != nil {
			return nil, errors.Trace(err)
		}
		if duplicates > 0 {
			log.Logger().Warn("duplicated trust relations ignored",
				zap.String("path", trustPath), zap.Int("n_duplicates", duplicates))
		}
	}
	log.Logger().Info("load dataset",
		zap.Int("n_users", dataset.CountUsers()),
		zap.Int("n_items", dataset.CountItems()),
		zap.Int("n_ratings", dataset.CountRatings()),
		zap.Int("n_trust", dataset.GetSocialGraph().CountEdges()))
	return dataset, nil
}

func readLines(path, sep string, hasHeader bool, f func(lineNo int, fields []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		// Ignore header
		if hasHeader {
			hasHeader = false
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var fields []string
		if sep == "" {
			fields = strings.Fields(line)
		} else {
			fields = strings.Split(line, sep)
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
		}
		if err = f(lineNo, fields); err != nil {
			return err
		}
	}
	return errors.Trace(scanner.Err())
}
