// Package universe builds one orchestrator.Universe per run from the
// configured equities file plus the Config Registry's topic/person entries
// (spec §4.8 "Per-run inputs").
package universe

import (
	"encoding/json"
	"os"

	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/configregistry"
	"github.com/westinedu/ai-courses-gcp/internal/models"
	"github.com/westinedu/ai-courses-gcp/internal/orchestrator"
)

// Load reads the equities file at cfg.Universe.EquitiesPath and combines it
// with every topic/person entry registry currently holds to build the Phase
// 1/Phase 2 input set. A missing equities file yields an empty equity list
// rather than an error — additional targets (topics, persons) can still run.
func Load(cfg *common.Config, registry *configregistry.Registry) (orchestrator.Universe, error) {
	tickers, err := loadEquities(cfg.Universe.EquitiesPath)
	if err != nil {
		return orchestrator.Universe{}, err
	}

	var targets []orchestrator.AdditionalTarget
	if registry != nil {
		for _, entry := range registry.All() {
			if entry.Group == "equity" {
				continue // equities come from the equities file, not the registry
			}
			kind := models.EntityGroupPerson
			if entry.Group != "" && entry.Group != "person" && entry.Group != "celebrity" {
				kind = models.EntityGroupMacro
			}
			targets = append(targets, orchestrator.AdditionalTarget{
				Entity: models.Entity{
					Identifier:  entry.Identifier,
					Kind:        kind,
					StoragePath: entry.StoragePath,
					Group:       entry.Group,
					Engines:     []models.Engine{models.EngineNews},
				},
			})
		}
	}

	return orchestrator.Universe{
		Equities:               tickers,
		GlobalEngineControl:    orchestrator.EngineFlags{Financials: true, Trading: true, News: true},
		AdditionalTargets:      targets,
		EnabledEquityCardTypes: cfg.Universe.EnabledEquityCardTypes,
		LLM: orchestrator.LLMRoutingConfig{
			Default: orchestrator.LLMTaskConfig{Backend: cfg.Universe.DefaultLLMBackend, Model: cfg.Universe.DefaultLLMModel},
		},
	}, nil
}

func loadEquities(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var tickers []string
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, err
	}
	return tickers, nil
}
