package models

// Resource is a catalog entry for a bookable game station. Membership in
// the catalog is configuration, loaded at startup, not derived state.
type Resource struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Bookable  bool   `yaml:"bookable" json:"bookable"`
	SortOrder int64  `yaml:"sort_order" json:"sort_order"`
}
