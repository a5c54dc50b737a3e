package estimator

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Band maps a cumulative-consumption floor to a fixed daily rate, used
// when no rate can be derived from history.
type Band struct {
	Above float64 `yaml:"above"`
	Daily float64 `yaml:"daily"`
}

// Bands is a consumption-bracket table, ordered highest floor first.
type Bands []Band

// DefaultBands returns the built-in bracket table.
func DefaultBands() Bands {
	return Bands{
		{Above: 1000, Daily: 20.0},
		{Above: 500, Daily: 15.0},
		{Above: 100, Daily: 8.0},
		{Above: 50, Daily: 4.0},
		{Above: 0, Daily: 2.0},
	}
}

// LoadBands reads a bracket table from a YAML file.
func LoadBands(path string) (Bands, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bands file: %w", err)
	}

	var doc struct {
		Bands Bands `yaml:"bands"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bands file: %w", err)
	}
	if len(doc.Bands) == 0 {
		return nil, fmt.Errorf("bands file %s defines no bands", path)
	}

	sort.Slice(doc.Bands, func(i, j int) bool {
		return doc.Bands[i].Above > doc.Bands[j].Above
	})
	return doc.Bands, nil
}

// DailyFor picks the daily rate for a cumulative consumption. The last
// band is the catch-all for consumption at or below every floor.
func (b Bands) DailyFor(totalConsumption float64) float64 {
	for _, band := range b {
		if totalConsumption > band.Above {
			return band.Daily
		}
	}
	if len(b) > 0 {
		return b[len(b)-1].Daily
	}
	return 2.0
}
