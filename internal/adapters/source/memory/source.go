// Package memory provides an in-memory report source for embedding
// callers and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tjfontaine/reportpipe/internal/core/domain"
	"github.com/tjfontaine/reportpipe/internal/core/ports"
)

// Source serves pre-built trees by report name.
type Source struct {
	mu      sync.RWMutex
	reports map[string]domain.Node
}

// New creates an empty in-memory source.
func New() *Source {
	return &Source{reports: make(map[string]domain.Node)}
}

// Register stores the tree served for a report, replacing any previous
// one.
func (s *Source) Register(report string, n domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report] = n
}

// Load returns the registered tree.
func (s *Source) Load(ctx context.Context, report string) (domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.reports[report]
	if !ok {
		return nil, fmt.Errorf("unknown report %q", report)
	}
	return n, nil
}

var _ ports.Source = (*Source)(nil)
