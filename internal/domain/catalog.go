package domain

// Service represents a kind of home service offered on the marketplace
type Service struct {
	ID         string   `json:"id" db:"id"`
	Name       string   `json:"name" db:"name"`
	Categories []string `json:"categories" db:"categories"`
}

// Provider represents a helper profile. RatingAvg and RatingCount are owned by
// the rating aggregator.
type Provider struct {
	ID          string   `json:"id" db:"id"`
	UserID      string   `json:"userId" db:"user_id"`
	FullName    string   `json:"fullName" db:"full_name"`
	Skills      []string `json:"skills" db:"skills"`
	Locations   []string `json:"locations" db:"locations"`
	BaseRate    float64  `json:"baseRate" db:"base_rate"`
	RatingAvg   float64  `json:"ratingAvg" db:"rating_avg"`
	RatingCount int      `json:"ratingCount" db:"rating_count"`
}

// Listing is a provider's advertisement of a service at a base price
type Listing struct {
	ID         string  `json:"id" db:"id"`
	ProviderID string  `json:"providerId" db:"provider_id"`
	ServiceID  string  `json:"serviceId" db:"service_id"`
	Title      string  `json:"title" db:"title"`
	BasePrice  float64 `json:"basePrice" db:"base_price"`
	Details    string  `json:"details" db:"details"`
}
