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

// FreqDict maps raw string IDs to dense int32 indices and counts how many times each
// ID has been seen.
type FreqDict struct {
	si  map[string]int32
	is  []string
	cnt []int32
}

func NewFreqDict() (d *FreqDict) {
	d = &FreqDict{map[string]int32{}, []string{}, []int32{}}
	return
}

// NewFreqDictFromSlice creates a dictionary with indices in the order of ids.
func NewFreqDictFromSlice(ids []string) *FreqDict {
	d := NewFreqDict()
	for _, id := range ids {
		d.NotCount(id)
	}
	return d
}

func (d *FreqDict) Count() int32 {
	return int32(len(d.is))
}

// Id returns the index of s and counts it. A new index is assigned to an unseen s.
func (d *FreqDict) Id(s string) (y int32) {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}

	y = int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return
}

// NotCount returns the index of s without counting it.
func (d *FreqDict) NotCount(s string) (y int32) {
	if y, ok := d.si[s]; ok {
		return y
	}

	y = int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 0)
	return
}

// Index returns the index of s or -1 if s has never been seen.
func (d *FreqDict) Index(s string) int32 {
	if y, ok := d.si[s]; ok {
		return y
	}
	return -1
}

func (d *FreqDict) String(id int32) (s string, ok bool) {
	if id < 0 || int(id) >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

func (d *FreqDict) Freq(id int32) int32 {
	if id < 0 || int(id) >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}

// ToSlice returns all IDs ordered by index.
func (d *FreqDict) ToSlice() []string {
	return append([]string(nil), d.is...)
}
