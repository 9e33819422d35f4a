package types

// PlaceDetails is the first-result view of a places text lookup.
type PlaceDetails struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	PriceLevel       *int     `json:"price_level,omitempty"`
	Types            []string `json:"types,omitempty"`
	PhotoReferences  []string `json:"photo_references,omitempty"`
}
