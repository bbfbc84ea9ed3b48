package entities

// Remedy represents a single natural remedy from the static dataset.
// Descriptive fields (type, description, properties, safety flags) are
// carried through untouched; only Id, Name, Symptoms and Allergens are
// read by the matching and filtering code.
type Remedy struct {
	Id          int      `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Symptoms    []string `json:"symptoms"`
	Allergens   []string `json:"allergens,omitempty"`
	Properties  []string `json:"properties,omitempty"`
	Preparation string   `json:"preparation,omitempty"`
	Precautions string   `json:"precautions,omitempty"`
	SafeForKids bool     `json:"safeForKids,omitempty"`
}

// MatchResult pairs a remedy with the selected symptoms it answered.
// MatchedSymptoms keeps the caller's original spelling and order.
type MatchResult struct {
	Remedy          Remedy   `json:"remedy"`
	MatchCount      int      `json:"matchCount"`
	MatchedSymptoms []string `json:"matchedSymptoms"`
}
