package entities

// Allergen represents a catalog entry a user can screen remedies against.
// Ids are controlled kebab-case tokens. The Remedies list is a denormalized
// reverse index produced offline; filtering only ever reads Remedy.Allergens,
// so this list is informational and passed through as-is.
type Allergen struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Remedies    []string `json:"remedies,omitempty"`
}
