package models

// ContentFacets are the distinct values offered as filters next to content search results.
type ContentFacets struct {
	Categories []string `json:"categories"`
	FileTypes  []string `json:"fileTypes"`
	Tags       []string `json:"tags"`
}

// OpportunityFacets are the distinct values offered as filters next to opportunity search results.
type OpportunityFacets struct {
	Categories []string `json:"categories"`
	Types      []string `json:"types"`
	Locations  []string `json:"locations"`
	Companies  []string `json:"companies"`
	Skills     []string `json:"skills"`
}

// CategoryActivity aggregates content or opportunity activity per category.
type CategoryActivity struct {
	Category     string `json:"category"`
	Count        int64  `json:"count"`
	Views        int64  `json:"views"`
	Downloads    int64  `json:"downloads,omitempty"`
	Applications int64  `json:"applications,omitempty"`
}
