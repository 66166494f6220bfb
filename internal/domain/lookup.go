package domain

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"href"`
	Snippet string `json:"body"`
}

// DrugInfo summarizes a drug from web search results.
type DrugInfo struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Dosage       string  `json:"dosage"`
	SideEffects  string  `json:"side_effects"`
	Interactions *string `json:"interactions,omitempty"`
}

// DiseaseInfo summarizes a disease from web search results.
type DiseaseInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Symptoms    string  `json:"symptoms"`
	Causes      string  `json:"causes"`
	Treatments  *string `json:"treatments,omitempty"`
}

// ImageDescription is the refined description of an uploaded image.
type ImageDescription struct {
	Description string `json:"description"`
}
