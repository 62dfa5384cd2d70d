package town

import (
	"sort"
	"sync"

	"github.com/talgya/ai-town/internal/config"
	"github.com/talgya/ai-town/internal/entropy"
)

// Building tracks the structural integrity of one indoor location. Integrity
// starts at 100 and only earthquakes lower it.
type Building struct {
	ID        string  `json:"id"`
	Integrity float64 `json:"integrity"`
}

// Buildings is the mutable registry of building state for a run.
type Buildings struct {
	mu    sync.Mutex
	byID  map[string]*Building
	order []string
}

// NewBuildings creates the registry with every indoor canonical location at
// full integrity.
func NewBuildings() *Buildings {
	b := &Buildings{byID: make(map[string]*Building)}
	for _, name := range CanGoPlaces() {
		if name == Exterior {
			continue
		}
		b.byID[name] = &Building{ID: name, Integrity: 100}
		b.order = append(b.order, name)
	}
	sort.Strings(b.order)
	return b
}

// Integrity returns the current integrity of a building, or 100 for unknown
// names (the exterior never degrades).
func (b *Buildings) Integrity(id string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd, ok := b.byID[Canonicalize(id)]; ok {
		return bd.Integrity
	}
	return 100
}

// DamageReport is one building's integrity loss from a quake step.
type DamageReport struct {
	Building  string  `json:"building"`
	Loss      float64 `json:"loss"`
	Integrity float64 `json:"integrity"`
}

// ApplyQuake rolls integrity loss for every building at the given intensity.
// Already-weakened buildings lose more. Returns per-building reports in
// stable order.
func (b *Buildings) ApplyQuake(rng *entropy.Source, intensity float64, d config.Damage) []DamageReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	reports := make([]DamageReport, 0, len(b.order))
	for _, id := range b.order {
		bd := b.byID[id]
		loss := intensity*d.BuildingBase +
			intensity*d.BuildingVulnerability*(100-bd.Integrity)/100 +
			rng.Uniform(-d.BuildingJitter, d.BuildingJitter)
		if loss < 0 {
			loss = 0
		}
		bd.Integrity -= loss
		if bd.Integrity < 0 {
			bd.Integrity = 0
		}
		reports = append(reports, DamageReport{Building: id, Loss: loss, Integrity: bd.Integrity})
	}
	return reports
}

// Snapshot returns a copy of all building states in stable order.
func (b *Buildings) Snapshot() []Building {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Building, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.byID[id])
	}
	return out
}
