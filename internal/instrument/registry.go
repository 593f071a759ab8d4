package instrument

import (
	"fmt"
	"sort"

	"github.com/pulseboard/tickerd/internal/model"
)

// Registry is the immutable set of configured instruments.
type Registry struct {
	bySymbol map[string]model.Instrument
	ordered  []model.Instrument // Sorted by symbol for stable iteration
}

// NewRegistry validates the given instrument configs and builds a
// registry. Any invalid config is fatal: the error names the offending
// symbol and field.
func NewRegistry(instruments []model.Instrument) (*Registry, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("no instruments configured")
	}

	r := &Registry{
		bySymbol: make(map[string]model.Instrument, len(instruments)),
		ordered:  make([]model.Instrument, 0, len(instruments)),
	}

	for _, inst := range instruments {
		if err := validate(inst); err != nil {
			return nil, err
		}
		if _, exists := r.bySymbol[inst.Symbol]; exists {
			return nil, fmt.Errorf("instrument %s: duplicate symbol", inst.Symbol)
		}
		r.bySymbol[inst.Symbol] = inst
		r.ordered = append(r.ordered, inst)
	}

	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Symbol < r.ordered[j].Symbol
	})

	return r, nil
}

// validate checks a single instrument config.
func validate(inst model.Instrument) error {
	if inst.Symbol == "" {
		return fmt.Errorf("instrument with empty symbol")
	}
	if inst.MinPrice >= inst.MaxPrice {
		return fmt.Errorf("instrument %s: min_price (%.2f) must be below max_price (%.2f)",
			inst.Symbol, inst.MinPrice, inst.MaxPrice)
	}
	if inst.MinPrice < 0 {
		return fmt.Errorf("instrument %s: min_price must be >= 0, got %.2f", inst.Symbol, inst.MinPrice)
	}
	if inst.BasePrice < inst.MinPrice || inst.BasePrice > inst.MaxPrice {
		return fmt.Errorf("instrument %s: base_price (%.2f) outside bounds [%.2f, %.2f]",
			inst.Symbol, inst.BasePrice, inst.MinPrice, inst.MaxPrice)
	}
	if inst.Volatility <= 0 {
		return fmt.Errorf("instrument %s: volatility must be > 0, got %g", inst.Symbol, inst.Volatility)
	}
	if inst.BaseVolume < 0 {
		return fmt.Errorf("instrument %s: base_volume must be >= 0, got %d", inst.Symbol, inst.BaseVolume)
	}
	return nil
}

// Get returns the instrument for symbol.
func (r *Registry) Get(symbol string) (model.Instrument, bool) {
	inst, ok := r.bySymbol[symbol]
	return inst, ok
}

// Has reports whether symbol is configured.
func (r *Registry) Has(symbol string) bool {
	_, ok := r.bySymbol[symbol]
	return ok
}

// All returns every instrument, sorted by symbol.
func (r *Registry) All() []model.Instrument {
	out := make([]model.Instrument, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Symbols returns all configured symbols, sorted.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.ordered))
	for _, inst := range r.ordered {
		out = append(out, inst.Symbol)
	}
	return out
}

// Len returns the number of configured instruments.
func (r *Registry) Len() int {
	return len(r.ordered)
}
