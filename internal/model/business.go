package model

// Input column headers for business records.
const (
	ColumnName        = "상호명"
	ColumnAddress     = "주소(도로명)"
	ColumnServiceText = "주요서비스"
	ColumnAdGroupID   = "ad_group_id"
)

// RequiredColumns lists the header columns every business input must carry.
var RequiredColumns = []string{ColumnName, ColumnAddress, ColumnServiceText}

// BusinessRecord is one raw input row.
type BusinessRecord struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	ServiceText string `json:"service_text"`
}

// BusinessContext is the resolved geography and term data for one business.
// Every slice is duplicate-free in first-seen order. A context only exists
// when geocoding succeeded and is never mutated after it is built.
type BusinessContext struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Services       []string `json:"services"`
	Industries     []string `json:"industries"`
	RegionKeywords []string `json:"region_keywords"`
	POIKeywords    []string `json:"poi_keywords"`
	Longitude      float64  `json:"longitude"`
	Latitude       float64  `json:"latitude"`
}

// Components holds the term pools merged across all contexts of a run.
type Components struct {
	Regions   []string `json:"regions" yaml:"regions"`
	Services  []string `json:"services" yaml:"services"`
	Modifiers []string `json:"modifiers" yaml:"modifiers"`
	POIs      []string `json:"pois" yaml:"pois"`
}
