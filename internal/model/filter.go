package model

// AutomationFilter holds criteria for querying automations.
type AutomationFilter struct {
	Owner   string `json:"owner,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
	Search  string `json:"search,omitempty"` // full-text search on name/description
	Sort    string `json:"sort,omitempty"`   // e.g. "-updated_at", "name"; prefix "-" = descending
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}
