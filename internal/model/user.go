package model

// User is the internal identity resolved from an inbound phone number.
type User struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
}
