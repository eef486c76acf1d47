package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryRegistry is an in-memory Registry seeded with the standard dental
// catalog. It backs development mode and tests; production resolves against
// the procedure_codes table instead.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Code
	byCode map[string]*Code
}

// seedCatalog is the canonical dental code set.
var seedCatalog = []Code{
	{Code: "V30", Category: CategoryCrown, Display: "Crown, metal-ceramic", Material: "metal-ceramic"},
	{Code: "V31", Category: CategoryCrown, Display: "Crown, zirconia", Material: "zirconia"},
	{Code: "H11", Category: CategoryPontic, Display: "Bridge pontic, metal-ceramic", Material: "metal-ceramic"},
	{Code: "H12", Category: CategoryPontic, Display: "Bridge pontic, zirconia", Material: "zirconia"},
	{Code: "R24", Category: CategoryFilling, Display: "Filling, direct restoration"},
	{Code: "R25", Category: CategoryFilling, Display: "Filling, glass-ionomer"},
	{Code: "E61", Category: CategoryExtraction, Display: "Extraction, simple"},
	{Code: "E62", Category: CategoryExtraction, Display: "Extraction, surgical"},
	{Code: "E63", Category: CategoryExtraction, Display: "Hemisection"},
	{Code: "E64", Category: CategoryExtraction, Display: "Extraction, impacted tooth"},
	{Code: "S71", Category: CategorySealing, Display: "Fissure sealing, first tooth"},
	{Code: "S72", Category: CategorySealing, Display: "Fissure sealing, each additional tooth"},
	{Code: "P81", Category: CategoryScaling, Display: "Scaling and root planing"},
	{Code: SentinelDisabled, Category: CategoryMarker, Display: "Tooth disabled on chart"},
	{Code: "A41", Category: CategoryAdjunct, Display: "Local anesthesia"},
	{Code: "A42", Category: CategoryAdjunct, Display: "Suturing"},
	{Code: "A43", Category: CategoryAdjunct, Display: "Suture material"},
	{Code: "A44", Category: CategoryAdjunct, Display: "Absolute isolation surcharge"},
	{Code: "A45", Category: CategoryAdjunct, Display: "Retention element"},
}

// NewMemoryRegistry returns a registry pre-seeded with the dental catalog.
func NewMemoryRegistry() *MemoryRegistry {
	r := &MemoryRegistry{
		byID:   make(map[uuid.UUID]*Code),
		byCode: make(map[string]*Code),
	}
	for i := range seedCatalog {
		c := seedCatalog[i]
		c.ID = uuid.New()
		r.byID[c.ID] = &c
		r.byCode[c.Code] = &c
	}
	return r
}

func (r *MemoryRegistry) Resolve(_ context.Context, id uuid.UUID) (*Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("code %s not in registry", id)
	}
	return c, nil
}

func (r *MemoryRegistry) ResolveCode(_ context.Context, code string) (*Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("code %q not in registry", code)
	}
	return c, nil
}
