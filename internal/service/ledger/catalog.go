package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solepick/fantasy-league/internal/models"
)

// catalogFile is the YAML shape of the event type seed file.
type catalogFile struct {
	EventTypes []catalogEntry `yaml:"event_types"`
}

type catalogEntry struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Category    string `yaml:"category"`
	PointValue  int    `yaml:"point_value"`
	IsActive    *bool  `yaml:"is_active"`
}

// LoadCatalog parses an event type catalog seed file.
func LoadCatalog(path string) ([]models.EventType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	types := make([]models.EventType, 0, len(file.EventTypes))
	for _, entry := range file.EventTypes {
		if entry.Name == "" {
			return nil, fmt.Errorf("catalog entry missing name")
		}
		switch entry.Category {
		case models.EventCategoryBasic, models.EventCategoryPenalty, models.EventCategoryBonus:
		default:
			return nil, fmt.Errorf("catalog entry %s has unknown category %q", entry.Name, entry.Category)
		}

		active := true
		if entry.IsActive != nil {
			active = *entry.IsActive
		}
		types = append(types, models.EventType{
			Name:        entry.Name,
			DisplayName: entry.DisplayName,
			Category:    entry.Category,
			PointValue:  entry.PointValue,
			IsActive:    active,
		})
	}
	return types, nil
}

// SeedCatalog loads the seed file and upserts it into the catalog.
func (s *Service) SeedCatalog(path string) error {
	types, err := LoadCatalog(path)
	if err != nil {
		return err
	}
	if err := s.eventRepo.SeedEventTypes(types); err != nil {
		return err
	}
	s.log.Info().Int("event_types", len(types)).Str("path", path).Msg("Seeded event type catalog")
	return nil
}
