// Package content ships the default funnel compiled into the binary.
package content

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"quiz-funnel/internal/domain"
)

//go:embed funnel.yaml
var defaultFunnel []byte

// Parse decodes and validates funnel YAML.
func Parse(data []byte) (domain.Funnel, error) {
	var f domain.Funnel
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Funnel{}, fmt.Errorf("decode funnel: %w", err)
	}
	if f.Derived.Experience == 0 {
		f.Derived.Experience = 1
	}
	if f.Derived.Commission == 0 {
		f.Derived.Commission = 2
	}
	if err := f.Validate(); err != nil {
		return domain.Funnel{}, err
	}
	return f, nil
}

// Default returns the embedded funnel.
func Default() (domain.Funnel, error) {
	return Parse(defaultFunnel)
}
