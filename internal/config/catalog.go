package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/domain/kpi"
)

// Catalog is the file form of the standard KPI definitions:
//
//	[[kpi]]
//	code = "cost_per_mile"
//	...
type Catalog struct {
	KPIs []kpi.CreateDefinitionRequest `toml:"kpi"`
}

// LoadCatalog reads and validates a KPI catalog file. Unknown keys are
// rejected so a typo does not silently drop a threshold.
func LoadCatalog(path string) ([]kpi.CreateDefinitionRequest, error) {
	var c Catalog
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to read kpi catalog %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("kpi catalog %s has unknown keys: %v", path, undecoded)
	}

	seen := make(map[string]bool, len(c.KPIs))
	for i := range c.KPIs {
		if err := c.KPIs[i].Validate(); err != nil {
			return nil, fmt.Errorf("kpi catalog entry %d (%s): %w", i, c.KPIs[i].Code, err)
		}
		if seen[c.KPIs[i].Code] {
			return nil, fmt.Errorf("kpi catalog has duplicate code %q", c.KPIs[i].Code)
		}
		seen[c.KPIs[i].Code] = true
	}
	return c.KPIs, nil
}
