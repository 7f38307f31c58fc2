package filters

import (
	"fmt"
	"sync"

	"github.com/tjfontaine/reportpipe/internal/core/ports"
	"github.com/tjfontaine/reportpipe/internal/params"
)

// Factory resolves one named generic filter from request parameters.
// FromRequest returns false when the request does not enable the filter.
type Factory struct {
	Name string

	// Ranking filters (sort, truncate, limit) are suppressed when the
	// request selects rows by label: selection takes precedence over
	// ranking display.
	Ranking bool

	FromRequest func(req *params.Request) (ports.Filter, bool)
}

var (
	factoryMu   sync.RWMutex
	factoryMap  = make(map[string]Factory)
	factoryList []Factory
)

// Register registers a generic filter factory. Registration order is the
// order filters run in the chain. Panics on duplicates, matching how
// misconfigured registrations should fail: at startup, loudly.
func Register(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if f.Name == "" {
		panic("filter factory name cannot be empty")
	}
	if f.FromRequest == nil {
		panic(fmt.Sprintf("filter factory %q must have a FromRequest function", f.Name))
	}
	if _, exists := factoryMap[f.Name]; exists {
		panic(fmt.Sprintf("filter factory %q already registered", f.Name))
	}
	factoryMap[f.Name] = f
	factoryList = append(factoryList, f)
}

func registeredFactories() []Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	out := make([]Factory, len(factoryList))
	copy(out, factoryList)
	return out
}

func init() {
	Register(Factory{
		Name: "search",
		FromRequest: func(req *params.Request) (ports.Filter, bool) {
			pattern := req.String("filter_pattern", "")
			if pattern == "" {
				return nil, false
			}
			return &Search{
				Column:  req.String("filter_column", ""),
				Pattern: pattern,
			}, true
		},
	})
	Register(Factory{
		Name:    "sort",
		Ranking: true,
		FromRequest: func(req *params.Request) (ports.Filter, bool) {
			column := req.String("filter_sort_column", "")
			if column == "" {
				return nil, false
			}
			return &SortByColumn{
				Column:     column,
				Descending: req.String("filter_sort_order", "desc") == "desc",
			}, true
		},
	})
	Register(Factory{
		Name:    "truncate",
		Ranking: true,
		FromRequest: func(req *params.Request) (ports.Filter, bool) {
			limit := req.Int("filter_truncate", -1)
			if limit < 0 {
				return nil, false
			}
			return &Truncate{Limit: limit}, true
		},
	})
	Register(Factory{
		Name:    "limit",
		Ranking: true,
		FromRequest: func(req *params.Request) (ports.Filter, bool) {
			limit := req.Int("filter_limit", -1)
			offset := req.Int("filter_offset", 0)
			if limit < 0 && offset <= 0 {
				return nil, false
			}
			return &LimitOffset{Offset: offset, Limit: limit}, true
		},
	})
}
