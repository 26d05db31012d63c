package clientdata

import "time"

// Profile is the signed in client's profile.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type Visit struct {
	ID          string    `json:"id"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
}

// Package is a prepaid bundle of visits.
type Package struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	VisitsLeft   int       `json:"visitsLeft"`
	ValidUntil   time.Time `json:"validUntil"`
	PurchasedAt  time.Time `json:"purchasedAt"`
	PriceInCents int64     `json:"priceInCents"`
	CurrencyCode string    `json:"currency"`
}

type Invoice struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	IssuedAt    time.Time `json:"issuedAt"`
	DueAt       time.Time `json:"dueAt"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Paid        bool      `json:"paid"`
	DocumentURL string    `json:"documentUrl,omitempty"`
}

// UserInfo is the identity of the account behind the session.
type UserInfo struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
}

type NotificationCount struct {
	Unread int `json:"unread"`
}

// ProfileParams selects the profile to fetch.
type ProfileParams struct {
	ID string
}

// ClientParams scopes a list fetch to one client.
type ClientParams struct {
	ClientID string
	Page     int
}

// NoParams is used by stores that fetch the current user's data.
type NoParams struct{}
