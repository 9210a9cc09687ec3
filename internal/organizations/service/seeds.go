package service

import (
	_ "embed"
	"fmt"

	"rooftrack_backend/internal/contacts/domain"

	"gopkg.in/yaml.v3"
)

//go:embed stages.yaml
var defaultStagesYAML []byte

type stageSeed struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Order int    `yaml:"order"`
}

// DefaultStages returns the pipeline stages every new organization starts
// with, loaded from the embedded seed file.
func DefaultStages() ([]domain.Stage, error) {
	var seeds []stageSeed
	if err := yaml.Unmarshal(defaultStagesYAML, &seeds); err != nil {
		return nil, fmt.Errorf("parse stage seeds: %w", err)
	}

	stages := make([]domain.Stage, 0, len(seeds))
	for _, seed := range seeds {
		name, ok := domain.ParseStage(seed.Name)
		if !ok {
			return nil, fmt.Errorf("unknown stage in seed file: %q", seed.Name)
		}
		stages = append(stages, domain.Stage{
			Name:         name,
			Type:         domain.StageType(seed.Type),
			DisplayOrder: seed.Order,
		})
	}
	return stages, nil
}
