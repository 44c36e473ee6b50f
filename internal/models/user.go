package models

import (
	"strconv"
	"time"
)

// User is an account record resolved by the identity gate.
type User struct {
	ID             int       `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Name           string    `db:"name" json:"name,omitempty"`
	ProfilePicture string    `db:"profile_picture" json:"profile_picture,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Profile is the public slice of a user embedded in realtime payloads.
type Profile struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	Name           string `json:"name,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Profile returns the user's public profile with the id in wire form.
func (u User) Profile() Profile {
	return Profile{
		ID:             strconv.Itoa(u.ID),
		Username:       u.Username,
		Name:           u.Name,
		ProfilePicture: u.ProfilePicture,
	}
}

// WireID returns the user's id as carried on realtime payloads and room names.
func (u User) WireID() string {
	return strconv.Itoa(u.ID)
}
