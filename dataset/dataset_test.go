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
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/trustfuse/base"
	"github.com/stretchr/testify/assert"
)

func TestDataset_AddRating(t *testing.T) {
	dataSet := NewDataset()
	assert.True(t, dataSet.AddRating("alice", "1", 5))
	assert.True(t, dataSet.AddRating("alice", "2", 3))
	assert.True(t, dataSet.AddRating("bob", "1", 4))
	assert.Equal(t, 2, dataSet.CountUsers())
	assert.Equal(t, 2, dataSet.CountItems())
	assert.Equal(t, 3, dataSet.CountRatings())
	assert.Equal(t, 2, dataSet.NumRows())

	assert.Equal(t, []int32{0, 1}, dataSet.UserRow(0).Indices)
	assert.Equal(t, []float32{5, 3}, dataSet.UserRow(0).Values)
	assert.Equal(t, []int32{0, 1}, dataSet.ItemRow(0).Indices)
	assert.Zero(t, dataSet.UserRow(5).Len())
	assert.Zero(t, dataSet.ItemRow(-1).Len())

	assert.Equal(t, float32(4), dataSet.GlobalMean())
	low, high := dataSet.RatingRange()
	assert.Equal(t, float32(3), low)
	assert.Equal(t, float32(5), high)

	var sum float32
	dataSet.ForEach(func(_, _ int32, rating float32) {
		sum += rating
	})
	assert.Equal(t, float32(12), sum)
}

func TestDataset_RepeatedRating(t *testing.T) {
	dataSet := NewDataset()
	assert.True(t, dataSet.AddRating("0", "a", 5))
	assert.True(t, dataSet.AddRating("0", "b", 3))
	assert.True(t, dataSet.AddRating("1", "b", 2))
	// the last rating of a cell wins
	assert.False(t, dataSet.AddRating("0", "b", 1))
	assert.Equal(t, 3, dataSet.CountRatings())
	assert.Equal(t, []int32{0, 1}, dataSet.UserRow(0).Indices)
	assert.Equal(t, []float32{5, 1}, dataSet.UserRow(0).Values)
	assert.Equal(t, []int32{0, 1}, dataSet.ItemRow(1).Indices)
	assert.Equal(t, []float32{1, 2}, dataSet.ItemRow(1).Values)
	var triples [][3]float32
	dataSet.ForEach(func(userIndex, itemIndex int32, rating float32) {
		triples = append(triples, [3]float32{float32(userIndex), float32(itemIndex), rating})
	})
	assert.Equal(t, [][3]float32{{0, 0, 5}, {0, 1, 1}, {1, 1, 2}}, triples)

	// overwrite after the row has been sorted
	dataSet.UserRow(0).SortIndex()
	assert.False(t, dataSet.AddRating("0", "a", 4))
	assert.Equal(t, []float32{4, 1}, dataSet.UserRow(0).Values)
	assert.Equal(t, float32(7)/3, dataSet.GlobalMean())

	// subsets keep distinct cells
	train, test := dataSet.Split(0.5, base.NewRandomGenerator(0))
	assert.Equal(t, 3, train.CountRatings()+test.CountRatings())
}

func TestDataset_Empty(t *testing.T) {
	dataSet := NewDataset()
	assert.Zero(t, dataSet.GlobalMean())
	low, high := dataSet.RatingRange()
	assert.Zero(t, low)
	assert.Zero(t, high)
}

func TestDataset_AddTrust(t *testing.T) {
	dataSet := NewDataset()
	dataSet.AddRating("alice", "1", 5)
	assert.True(t, dataSet.AddTrust("alice", "carol", 1))
	assert.False(t, dataSet.AddTrust("alice", "carol", 0.5))
	// carol has no ratings but owns a row
	assert.Equal(t, 2, dataSet.CountUsers())
	assert.Equal(t, 2, dataSet.NumRows())
	assert.Zero(t, dataSet.UserRow(1).Len())
	assert.Equal(t, int32(0), dataSet.GetUserDict().Freq(1))

	graph := dataSet.GetSocialGraph()
	assert.Equal(t, 1, graph.CountEdges())
	assert.Equal(t, 1, graph.OutDegree(0))
	assert.Equal(t, 0, graph.OutDegree(1))
	assert.Equal(t, []int32{0}, graph.InNeighbors(1).Indices)
	assert.Equal(t, []float32{1}, graph.Neighbors(0).Values)
}

func TestDataset_Split(t *testing.T) {
	dataSet := NewDataset()
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			dataSet.AddRating(string(rune('a'+i)), string(rune('A'+j)), float32(i+j))
		}
	}
	dataSet.AddTrust("a", "b", 1)
	train, test := dataSet.Split(0.2, base.NewRandomGenerator(0))
	assert.Equal(t, 80, train.CountRatings())
	assert.Equal(t, 20, test.CountRatings())
	assert.Equal(t, 10, train.NumRows())
	assert.Equal(t, 10, test.NumRows())
	assert.Equal(t, dataSet.GetUserDict(), train.GetUserDict())
	assert.Equal(t, dataSet.GetItemDict(), test.GetItemDict())
	assert.Equal(t, dataSet.GetSocialGraph(), train.GetSocialGraph())

	rows := 0
	for u := int32(0); u < 10; u++ {
		rows += train.UserRow(u).Len() + test.UserRow(u).Len()
	}
	assert.Equal(t, 100, rows)
}

func TestSocialGraph(t *testing.T) {
	graph := NewSocialGraph()
	assert.True(t, graph.AddEdge(0, 2, 1))
	assert.True(t, graph.AddEdge(1, 2, 0.5))
	assert.True(t, graph.AddEdge(2, 0, 1))
	assert.False(t, graph.AddEdge(0, 2, 1))
	assert.Equal(t, 3, graph.CountEdges())
	assert.Equal(t, []int32{2}, graph.Neighbors(1).Indices)
	assert.Zero(t, graph.OutDegree(3))
	assert.Equal(t, []int32{0, 1}, graph.InNeighbors(2).Indices)
	assert.Equal(t, []float32{1, 0.5}, graph.InNeighbors(2).Values)
	assert.Zero(t, graph.OutDegree(7))
	assert.Zero(t, graph.InNeighbors(-1).Len())
}

func TestLoadDataFromCSV(t *testing.T) {
	dir := t.TempDir()
	ratingPath := filepath.Join(dir, "ratings.txt")
	trustPath := filepath.Join(dir, "trust.txt")
	assert.NoError(t, os.WriteFile(ratingPath, []byte("user,item,rating\n1,10,4\n1,11,2.5\n\n2,10,5\n1,10,3\n"), 0644))
	assert.NoError(t, os.WriteFile(trustPath, []byte("truster,trustee\n1,2\n2,3,0.5\n1,2\n"), 0644))

	dataSet, err := LoadDataFromCSV(ratingPath, trustPath, ",", true)
	assert.NoError(t, err)
	// the repeated rating of user 1 on item 10 overwrites the first one
	assert.Equal(t, 3, dataSet.CountRatings())
	user1 := dataSet.GetUserDict().Index("1")
	assert.Equal(t, []float32{3, 2.5}, dataSet.UserRow(user1).Values)
	assert.Equal(t, 3, dataSet.CountUsers())
	assert.Equal(t, 2, dataSet.CountItems())
	assert.Equal(t, 2, dataSet.GetSocialGraph().CountEdges())
	user3 := dataSet.GetUserDict().Index("3")
	user2 := dataSet.GetUserDict().Index("2")
	assert.Equal(t, []int32{user3}, dataSet.GetSocialGraph().Neighbors(user2).Indices)
	assert.Equal(t, []float32{0.5}, dataSet.GetSocialGraph().Neighbors(user2).Values)

	// rating file without trust file
	dataSet, err = LoadDataFromCSV(ratingPath, "", ",", true)
	assert.NoError(t, err)
	assert.Zero(t, dataSet.GetSocialGraph().CountEdges())
}

func TestLoadDataFromCSV_Whitespace(t *testing.T) {
	ratingPath := filepath.Join(t.TempDir(), "ratings.txt")
	assert.NoError(t, os.WriteFile(ratingPath, []byte("1 10  4\n2\t10\t3\n"), 0644))
	dataSet, err := LoadDataFromCSV(ratingPath, "", "", false)
	assert.NoError(t, err)
	assert.Equal(t, 2, dataSet.CountRatings())
	assert.Equal(t, float32(3.5), dataSet.GlobalMean())
}

func TestLoadDataFromCSV_Error(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadDataFromCSV(filepath.Join(dir, "missing.txt"), "", ",", false)
	assert.Error(t, err)

	ratingPath := filepath.Join(dir, "ratings.txt")
	assert.NoError(t, os.WriteFile(ratingPath, []byte("1,10,4\n1,11\n"), 0644))
	_, err = LoadDataFromCSV(ratingPath, "", ",", false)
	assert.ErrorContains(t, err, "ratings.txt:2")

	assert.NoError(t, os.WriteFile(ratingPath, []byte("1,10,x\n"), 0644))
	_, err = LoadDataFromCSV(ratingPath, "", ",", false)
	assert.ErrorContains(t, err, "ratings.txt:1")

	trustPath := filepath.Join(dir, "trust.txt")
	assert.NoError(t, os.WriteFile(ratingPath, []byte("1,10,4\n"), 0644))
	assert.NoError(t, os.WriteFile(trustPath, []byte("1\n"), 0644))
	_, err = LoadDataFromCSV(ratingPath, trustPath, ",", false)
	assert.ErrorContains(t, err, "trust.txt:1")
}
