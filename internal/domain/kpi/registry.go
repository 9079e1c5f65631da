package kpi

import (
	"context"
	"sort"
	"sync"
)

// CalculationInput is what a metric needs to compute one value.
type CalculationInput struct {
	CompanyID string
	Scope     Scope
	Period    Period
}

// CalculationFunc computes one KPI value. It returns nil when the source
// data for the period does not exist; an error marks the measurement critical.
type CalculationFunc func(ctx context.Context, in CalculationInput) (*float64, error)

// Metric binds a calculation to the scope types it can evaluate.
type Metric struct {
	Calculate CalculationFunc
	Scopes    []ScopeType
}

// Supports reports whether the metric can be evaluated for scope type t.
func (m Metric) Supports(t ScopeType) bool {
	for _, s := range m.Scopes {
		if s == t {
			return true
		}
	}
	return false
}

// Registry maps KPI codes to calculations. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
}

func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Register binds code to fn, replacing any previous binding. Without
// scopes the metric is fleet-wide only.
func (r *Registry) Register(code string, fn CalculationFunc, scopes ...ScopeType) {
	if len(scopes) == 0 {
		scopes = []ScopeType{ScopeFleet}
	}
	r.mu.Lock()
	r.metrics[code] = Metric{Calculate: fn, Scopes: scopes}
	r.mu.Unlock()
}

func (r *Registry) Lookup(code string) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.metrics[code]
	return m, ok
}

// Codes returns the registered codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	codes := make([]string, 0, len(r.metrics))
	for code := range r.metrics {
		codes = append(codes, code)
	}
	r.mu.RUnlock()
	sort.Strings(codes)
	return codes
}
