package pressure

import (
	"sort"
	"sync"

	"github.com/san-kum/blsim/internal/bls"
)

type catalogKey struct {
	geometry bls.Geometry
	charge   float64
}

// Catalog is an in-memory SurrogateSource keyed by exact geometry and charge.
type Catalog struct {
	mu     sync.RWMutex
	models map[catalogKey]*SurrogateModel
}

func NewCatalog() *Catalog {
	return &Catalog{models: make(map[catalogKey]*SurrogateModel)}
}

// Add registers a model fitted for geometry g, replacing any previous one.
func (c *Catalog) Add(g bls.Geometry, model *SurrogateModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[catalogKey{g, model.params.Charge}] = model
}

func (c *Catalog) Surrogate(g bls.Geometry, charge float64) (*SurrogateModel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	model, ok := c.models[catalogKey{g, charge}]
	if !ok {
		return nil, &MissingSurrogateError{Geometry: g, Charge: charge}
	}
	return model, nil
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Charges lists the charges fitted for geometry g in ascending order.
func (c *Catalog) Charges(g bls.Geometry) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var qs []float64
	for k := range c.models {
		if k.geometry == g {
			qs = append(qs, k.charge)
		}
	}
	sort.Float64s(qs)
	return qs
}
