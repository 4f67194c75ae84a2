package models

import "time"

// DefaultAvatar is used when a user signs up without a profile image.
const DefaultAvatar = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// User is a credential record. PasswordHash is excluded from every JSON
// response; handlers never marshal the hash to a client.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
