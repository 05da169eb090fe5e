package models

// Crop is a row from the platform's crop catalog, consumed read-only by the
// dialogue engine.
type Crop struct {
	ID        string   `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	SoilTypes []string `json:"soilTypes" db:"soil_types"`
	Season    string   `json:"season,omitempty" db:"season"`
	IsActive  bool     `json:"isActive" db:"is_active"`
}

// Scheme is a row from the government scheme catalog.
type Scheme struct {
	ID       string `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	State    string `json:"state" db:"state"`
	Category string `json:"category,omitempty" db:"category"`
	IsActive bool   `json:"isActive" db:"is_active"`
}

// Advisory is a crop-care advisory document from the search index, used to
// enrich disease-related answers with text guidance.
type Advisory struct {
	ID    string `json:"id"`
	Crop  string `json:"crop"`
	Title string `json:"title"`
	Tip   string `json:"tip"`
}
