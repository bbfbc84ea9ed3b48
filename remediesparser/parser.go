// Package remediesparser loads the static dataset files backing the API:
// the remedy collection, the allergen catalog and the symptom synonym
// table. Files live in a data directory and are re-read on every reload.
package remediesparser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/remedesfr/remedes-api/interfaces"
	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
)

// Dataset file names inside the data directory.
const (
	RemediesFile  = "remedies.json"
	AllergensFile = "allergens.json"
	SynonymsFile  = "synonyms.yaml"
)

// ParserImpl implements interfaces.Parser against a data directory.
type ParserImpl struct {
	dataDir string
}

// Compile-time check
var _ interfaces.Parser = (*ParserImpl)(nil)

// NewParser creates a parser reading from dataDir.
func NewParser(dataDir string) *ParserImpl {
	return &ParserImpl{dataDir: dataDir}
}

// ParseAll reads the remedy collection, allergen catalog and synonym table.
// Remedies are required; a missing allergen catalog or synonym table only
// degrades the respective feature and is logged, not fatal.
func (p *ParserImpl) ParseAll() ([]entities.Remedy, []entities.Allergen, *matching.SynonymIndex, error) {
	remedies, err := p.parseRemedies()
	if err != nil {
		return nil, nil, nil, err
	}

	allergens, err := p.parseAllergens()
	if err != nil {
		logging.Warn("Allergen catalog unavailable, allergen validation disabled", "error", err)
		allergens = []entities.Allergen{}
	}

	synonyms, err := p.parseSynonyms()
	if err != nil {
		logging.Warn("Synonym table unavailable, symptom terms are matched verbatim", "error", err)
		synonyms = matching.NewSynonymIndex(nil)
	}

	return remedies, allergens, synonyms, nil
}

func (p *ParserImpl) parseRemedies() ([]entities.Remedy, error) {
	path := filepath.Join(p.dataDir, RemediesFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var remedies []entities.Remedy
	if err := json.Unmarshal(raw, &remedies); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(remedies) == 0 {
		return nil, fmt.Errorf("%s contains no remedies", path)
	}
	return remedies, nil
}

func (p *ParserImpl) parseAllergens() ([]entities.Allergen, error) {
	path := filepath.Join(p.dataDir, AllergensFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var allergens []entities.Allergen
	if err := json.Unmarshal(raw, &allergens); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return allergens, nil
}

func (p *ParserImpl) parseSynonyms() (*matching.SynonymIndex, error) {
	path := filepath.Join(p.dataDir, SynonymsFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var table map[string][]string
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return matching.NewSynonymIndex(table), nil
}
