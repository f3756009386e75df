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
	"github.com/chewxy/math32"
	"github.com/gorse-io/trustfuse/base"
	"github.com/samber/lo"
)

// Dataset is a sparse rating matrix together with the social graph of its users. Rows
// of the rating matrix are indexed by user and columns by item. Users and items are
// mapped to dense indices by dictionaries shared by all subsets split from a dataset.
type Dataset struct {
	userDict    *FreqDict
	itemDict    *FreqDict
	users       []int32
	items       []int32
	ratings     []float32
	userRatings []*base.SparseVector
	itemRatings []*base.SparseVector
	cells       map[lo.Tuple2[int32, int32]]int
	social      *SocialGraph
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		userDict: NewFreqDict(),
		itemDict: NewFreqDict(),
		cells:    make(map[lo.Tuple2[int32, int32]]int),
		social:   NewSocialGraph(),
	}
}

// newSubset creates an empty dataset sharing dictionaries and social graph with d.
func (d *Dataset) newSubset(capacity int) *Dataset {
	return &Dataset{
		userDict:    d.userDict,
		itemDict:    d.itemDict,
		users:       make([]int32, 0, capacity),
		items:       make([]int32, 0, capacity),
		ratings:     make([]float32, 0, capacity),
		userRatings: base.NewSparseMatrix(int(d.userDict.Count())),
		itemRatings: base.NewSparseMatrix(int(d.itemDict.Count())),
		cells:       make(map[lo.Tuple2[int32, int32]]int, capacity),
		social:      d.social,
	}
}

// AddRating adds a rating given by a user to an item. A repeated rating overwrites the
// previous one and false is returned.
func (d *Dataset) AddRating(userId, itemId string, rating float32) bool {
	userIndex := d.userDict.Id(userId)
	itemIndex := d.itemDict.Id(itemId)
	return d.addRating(userIndex, itemIndex, rating)
}

func (d *Dataset) addRating(userIndex, itemIndex int32, rating float32) bool {
	d.growUsers()
	d.growItems()
	cell := lo.Tuple2[int32, int32]{A: userIndex, B: itemIndex}
	if pos, exist := d.cells[cell]; exist {
		d.ratings[pos] = rating
		setValue(d.userRatings[userIndex], itemIndex, rating)
		setValue(d.itemRatings[itemIndex], userIndex, rating)
		return false
	}
	d.cells[cell] = len(d.ratings)
	d.users = append(d.users, userIndex)
	d.items = append(d.items, itemIndex)
	d.ratings = append(d.ratings, rating)
	d.userRatings[userIndex].Add(itemIndex, rating)
	d.itemRatings[itemIndex].Add(userIndex, rating)
	return true
}

func setValue(vec *base.SparseVector, index int32, value float32) {
	for i := range vec.Indices {
		if vec.Indices[i] == index {
			vec.Values[i] = value
			return
		}
	}
}

// AddTrust adds a directed trust relation from trustor to trustee. Duplicated relations
// are ignored.
func (d *Dataset) AddTrust(trustorId, trusteeId string, value float32) bool {
	trustor := d.userDict.NotCount(trustorId)
	trustee := d.userDict.NotCount(trusteeId)
	d.growUsers()
	return d.social.AddEdge(trustor, trustee, value)
}

func (d *Dataset) growUsers() {
	for len(d.userRatings) < int(d.userDict.Count()) {
		d.userRatings = append(d.userRatings, base.NewSparseVector())
	}
	d.social.Grow(int(d.userDict.Count()))
}

func (d *Dataset) growItems() {
	for len(d.itemRatings) < int(d.itemDict.Count()) {
		d.itemRatings = append(d.itemRatings, base.NewSparseVector())
	}
}

func (d *Dataset) GetUserDict() *FreqDict {
	return d.userDict
}

func (d *Dataset) GetItemDict() *FreqDict {
	return d.itemDict
}

func (d *Dataset) GetSocialGraph() *SocialGraph {
	return d.social
}

// CountUsers returns the number of users, including users who only appear in the
// social graph.
func (d *Dataset) CountUsers() int {
	return int(d.userDict.Count())
}

func (d *Dataset) CountItems() int {
	return int(d.itemDict.Count())
}

func (d *Dataset) CountRatings() int {
	return len(d.ratings)
}

// ForEach iterates rating triples in insertion order.
func (d *Dataset) ForEach(f func(userIndex, itemIndex int32, rating float32)) {
	for i := range d.ratings {
		f(d.users[i], d.items[i], d.ratings[i])
	}
}

// NumRows returns the number of rows of the rating matrix.
func (d *Dataset) NumRows() int {
	return len(d.userRatings)
}

// UserRow returns ratings of a user. An empty vector is returned for users without rows.
func (d *Dataset) UserRow(userIndex int32) *base.SparseVector {
	if userIndex < 0 || int(userIndex) >= len(d.userRatings) {
		return base.NewSparseVector()
	}
	return d.userRatings[userIndex]
}

// ItemRow returns ratings received by an item.
func (d *Dataset) ItemRow(itemIndex int32) *base.SparseVector {
	if itemIndex < 0 || int(itemIndex) >= len(d.itemRatings) {
		return base.NewSparseVector()
	}
	return d.itemRatings[itemIndex]
}

// GlobalMean returns the mean of all ratings.
func (d *Dataset) GlobalMean() float32 {
	if len(d.ratings) == 0 {
		return 0
	}
	var sum float32
	for _, r := range d.ratings {
		sum += r
	}
	return sum / float32(len(d.ratings))
}

// RatingRange returns the minimum and maximum of ratings.
func (d *Dataset) RatingRange() (float32, float32) {
	if len(d.ratings) == 0 {
		return 0, 0
	}
	low, high := math32.Inf(1), math32.Inf(-1)
	for _, r := range d.ratings {
		low = math32.Min(low, r)
		high = math32.Max(high, r)
	}
	return low, high
}

// Split a dataset into a training set and a test set. Ratings are shuffled by rng and
// the first testRatio of them go to the test set. Both sets share dictionaries and the
// social graph with d.
func (d *Dataset) Split(testRatio float32, rng base.RandomGenerator) (*Dataset, *Dataset) {
	numTest := int(float32(d.CountRatings()) * testRatio)
	perm := rng.Perm(d.CountRatings())
	trainSet := d.newSubset(d.CountRatings() - numTest)
	testSet := d.newSubset(numTest)
	for i, index := range perm {
		if i < numTest {
			testSet.addRating(d.users[index], d.items[index], d.ratings[index])
		} else {
			trainSet.addRating(d.users[index], d.items[index], d.ratings[index])
		}
	}
	return trainSet, testSet
}
