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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/trustfuse/base"
	"github.com/samber/lo"
)

// SocialGraph is a directed graph of trust relations between users. An edge (u, v)
// means u trusts v. Users are indexed by the user dictionary of the owning dataset.
type SocialGraph struct {
	out   []*base.SparseVector
	in    []*base.SparseVector
	edges mapset.Set[lo.Tuple2[int32, int32]]
}

func NewSocialGraph() *SocialGraph {
	return &SocialGraph{
		edges: mapset.NewThreadUnsafeSet[lo.Tuple2[int32, int32]](),
	}
}

// Grow extends the graph to hold at least n users.
func (g *SocialGraph) Grow(n int) {
	for len(g.out) < n {
		g.out = append(g.out, base.NewSparseVector())
		g.in = append(g.in, base.NewSparseVector())
	}
}

// AddEdge adds a trust relation. It returns false if the relation already exists.
func (g *SocialGraph) AddEdge(trustor, trustee int32, value float32) bool {
	if !g.edges.Add(lo.T2(trustor, trustee)) {
		return false
	}
	g.Grow(int(max(trustor, trustee)) + 1)
	g.out[trustor].Add(trustee, value)
	g.in[trustee].Add(trustor, value)
	return true
}

func (g *SocialGraph) CountEdges() int {
	return g.edges.Cardinality()
}

// Neighbors returns users trusted by u and trust strengths. An empty vector is returned
// for users out of range.
func (g *SocialGraph) Neighbors(u int32) *base.SparseVector {
	if u < 0 || int(u) >= len(g.out) {
		return base.NewSparseVector()
	}
	return g.out[u]
}

// InNeighbors returns users who trust u.
func (g *SocialGraph) InNeighbors(u int32) *base.SparseVector {
	if u < 0 || int(u) >= len(g.in) {
		return base.NewSparseVector()
	}
	return g.in[u]
}

func (g *SocialGraph) OutDegree(u int32) int {
	return g.Neighbors(u).Len()
}
