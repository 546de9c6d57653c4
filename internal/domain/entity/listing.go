package entity

import (
	"strings"
	"time"
)

// Service listing categories.
const (
	CategoryCleaning = "Cleaning"
	CategoryRepair   = "Repair"
	CategoryDelivery = "Delivery"
	CategoryBeauty   = "Beauty"
	CategoryHealth   = "Health"
)

var Categories = []string{CategoryCleaning, CategoryRepair, CategoryDelivery, CategoryBeauty, CategoryHealth}

type Location struct {
	Address   string  `json:"address" firestore:"address"`
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

// Listing is a service offered by a provider, stored in the "services"
// collection.
type Listing struct {
	ID            string    `json:"id" firestore:"-"`
	Title         string    `json:"title" firestore:"title"`
	Description   string    `json:"description" firestore:"description"`
	Price         float64   `json:"price" firestore:"price"`
	Category      string    `json:"category" firestore:"category"`
	Location      Location  `json:"location" firestore:"location"`
	Images        []string  `json:"images" firestore:"images"`
	Rating        float64   `json:"rating" firestore:"rating"`
	ProviderID    string    `json:"provider_id" firestore:"providerId"`
	ProviderName  string    `json:"provider_name" firestore:"providerName"`
	ProviderImage string    `json:"provider_image" firestore:"providerImage"`
	ProviderPhone string    `json:"provider_phone" firestore:"providerPhone"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}

// MatchesQuery is a case-insensitive substring match over title,
// description and address. An empty query matches everything.
func (l *Listing) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), q) ||
		strings.Contains(strings.ToLower(l.Description), q) ||
		strings.Contains(strings.ToLower(l.Location.Address), q)
}

// MatchesCategory treats "" and "All" as no filter.
func (l *Listing) MatchesCategory(category string) bool {
	if category == "" || strings.EqualFold(category, "All") {
		return true
	}
	return strings.EqualFold(l.Category, category)
}
