// Copyright 2023 gorse Project Authors
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

package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type spanKeyType string

var spanKeyName = spanKeyType(uuid.New().String())

type Status string

const (
	StatusPending  Status = "Pending"
	StatusComplete Status = "Complete"
	StatusRunning  Status = "Running"
	StatusFailed   Status = "Failed"
)

// Tracer collects root spans. Spans started from a context carrying a span are attached
// to that span as children.
type Tracer struct {
	name  string
	spans sync.Map
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Start creates a root span.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := newSpan(name, total)
	t.spans.Store(name, span)
	return context.WithValue(ctx, spanKeyName, span), span
}

// List returns progress of all spans. Children follow their parents.
func (t *Tracer) List() []Progress {
	var roots []*Span
	t.spans.Range(func(_, value interface{}) bool {
		roots = append(roots, value.(*Span))
		return true
	})
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].start.Before(roots[j].start)
	})
	var progress []Progress
	for _, span := range roots {
		progress = span.appendProgress(t.name, progress)
	}
	return progress
}

type Span struct {
	name     string
	mu       sync.Mutex
	status   Status
	total    int
	count    int
	err      string
	start    time.Time
	finish   time.Time
	children []*Span
}

func newSpan(name string, total int) *Span {
	return &Span{
		name:   name,
		status: StatusRunning,
		total:  total,
		start:  time.Now(),
	}
}

func (s *Span) Add(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count += n
}

func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusRunning {
		s.status = StatusComplete
		s.count = s.total
		s.finish = time.Now()
	}
}

func (s *Span) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.err = err.Error()
	s.finish = time.Now()
}

func (s *Span) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Span) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Span) appendProgress(tracer string, progress []Progress) []Progress {
	s.mu.Lock()
	progress = append(progress, Progress{
		Tracer:     tracer,
		Name:       s.name,
		Status:     s.status,
		Error:      s.err,
		Count:      s.count,
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish,
	})
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()
	for _, child := range children {
		progress = child.appendProgress(tracer, progress)
	}
	return progress
}

// Start creates a span. The span is attached to the span in ctx if there is one.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	childSpan := newSpan(name, total)
	if ctx == nil {
		ctx = context.Background()
	}
	if span, ok := ctx.Value(spanKeyName).(*Span); ok {
		span.mu.Lock()
		span.children = append(span.children, childSpan)
		span.mu.Unlock()
	}
	return context.WithValue(ctx, spanKeyName, childSpan), childSpan
}

// Fail marks the span in ctx as failed.
func Fail(ctx context.Context, err error) {
	if span, ok := ctx.Value(spanKeyName).(*Span); ok {
		span.Fail(err)
	}
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}
