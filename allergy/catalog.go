package allergy

import (
	"net/url"
	"strings"

	"github.com/remedesfr/remedes-api/remediesparser/entities"
)

// maxCSVLength caps raw allergen CSV input; anything longer is rejected
// outright rather than partially parsed.
const maxCSVLength = 200

// Catalog indexes the static allergen records by lowercased id for
// validation of externally supplied allergen tokens.
type Catalog struct {
	byID map[string]entities.Allergen
}

// NewCatalog builds a catalog from the loaded allergen records.
func NewCatalog(allergens []entities.Allergen) *Catalog {
	c := &Catalog{byID: make(map[string]entities.Allergen, len(allergens))}
	for _, a := range allergens {
		if a.Id == "" {
			continue
		}
		c.byID[strings.ToLower(a.Id)] = a
	}
	return c
}

// ValidateAllergenID reports whether id case-insensitively matches a known
// allergen id.
func (c *Catalog) ValidateAllergenID(id string) bool {
	if id == "" {
		return false
	}
	_, ok := c.byID[strings.ToLower(id)]
	return ok
}

// Get returns the allergen record for id (case-insensitive).
func (c *Catalog) Get(id string) (entities.Allergen, bool) {
	a, ok := c.byID[strings.ToLower(id)]
	return a, ok
}

// Len returns the number of cataloged allergens.
func (c *Catalog) Len() int {
	return len(c.byID)
}

// ParseAllergenCSV splits raw comma-separated allergen input, URL-decodes
// each token and keeps only tokens naming a known allergen. Undecodable or
// unknown tokens are dropped silently; input longer than 200 characters
// yields an empty result.
func (c *Catalog) ParseAllergenCSV(raw string) []string {
	result := []string{}
	if raw == "" || len(raw) > maxCSVLength {
		return result
	}

	for _, token := range strings.Split(raw, ",") {
		decoded, err := url.QueryUnescape(strings.TrimSpace(token))
		if err != nil || decoded == "" {
			continue
		}
		if a, ok := c.Get(decoded); ok {
			result = append(result, a.Id)
		}
	}
	return result
}

// IsSafe reports whether the remedy shares no allergen with the given set.
// It is the request-scoped variant of FilterService.CanUseRemedy, used when
// a caller supplies allergens explicitly instead of relying on stored state.
func IsSafe(remedy *entities.Remedy, allergens []string) bool {
	if remedy == nil {
		return true
	}
	for _, allergen := range remedy.Allergens {
		if contains(allergens, allergen) {
			return false
		}
	}
	return true
}
