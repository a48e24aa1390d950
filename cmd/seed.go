package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"taste_match/models"
	"taste_match/repository"
)

// seedFile 内存模式的种子数据：
//
//	entities:
//	  - {kind: user, id: 1}
//	  - {kind: restaurant, id: 10, version: 7919}
//	profiles:
//	  - kind: user
//	    id: 1
//	    keywords:
//	      - {name: spicy, sentiment: positive, frequency: 3, embedding: [0.1, 0.2]}
type seedFile struct {
	Entities []struct {
		Kind    string `yaml:"kind"`
		ID      int64  `yaml:"id"`
		Version int64  `yaml:"version"`
	} `yaml:"entities"`
	Profiles []struct {
		Kind     string           `yaml:"kind"`
		ID       int64            `yaml:"id"`
		Keywords []map[string]any `yaml:"keywords"`
	} `yaml:"profiles"`
}

func loadSeed(path string, entities *repository.MemoryEntityStore, profiles *repository.MemoryProfileStore) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}

	for _, e := range seed.Entities {
		kind, err := models.ParseEntityKind(e.Kind)
		if err != nil {
			return err
		}
		entities.AddEntity(models.EntityRef{Kind: kind, ID: e.ID}, e.Version)
	}
	for _, p := range seed.Profiles {
		kind, err := models.ParseEntityKind(p.Kind)
		if err != nil {
			return err
		}
		raw := make([]models.RawKeyword, 0, len(p.Keywords))
		for _, k := range p.Keywords {
			raw = append(raw, models.RawKeyword(k))
		}
		profiles.Put(models.EntityRef{Kind: kind, ID: p.ID}, raw)
	}
	return nil
}
