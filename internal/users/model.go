package users

import "time"

// User is an onboarded candidate: the email drafts are addressed to and the industry
// they are looking for work in.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Industry  string    `json:"industry,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
