/*
Copyright (c) mixrelay Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package peer

import (
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config specifies Network run options, loaded from a YAML file on
// startup.
type Config struct {
	// Me is the local peer's own identifier, inserted into Network's
	// excluded set so it can never be tracked as a peer of itself.
	Me string `yaml:"me"`

	// QualityThreshold is the minimum quality a peer must hold to count
	// as "good" in any bucket. Must be at least BadQuality.
	QualityThreshold float64 `yaml:"quality_threshold"`

	Quirks ConfigQuirks `yaml:"quirks"`
}

// ConfigQuirks is the YAML-facing mirror of Quirks.
type ConfigQuirks struct {
	LiteralBackoffFormula bool `yaml:"literal_backoff_formula"`
}

// ReadConfig reads and parses a Config from path. QualityThreshold
// defaults to BadQuality and LiteralBackoffFormula to true if the file
// omits them.
func ReadConfig(path string) (*Config, error) {
	c := &Config{
		QualityThreshold: BadQuality,
		Quirks:           ConfigQuirks{LiteralBackoffFormula: true},
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AsQuirks converts the YAML-facing config into the Quirks struct New
// consumes.
func (c *Config) AsQuirks() Quirks {
	return Quirks{LiteralBackoffFormula: c.Quirks.LiteralBackoffFormula}
}
