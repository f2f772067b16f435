package model

import "github.com/google/uuid"

// User is an account that owns products and transactions
type User struct {
	BaseModel
	Name         string  `gorm:"type:varchar(30);not null" json:"name"`
	PhoneNumber  string  `gorm:"type:varchar(14);not null" json:"phoneNumber"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string  `gorm:"type:text;not null" json:"-"`
	RefreshToken *string `gorm:"type:text" json:"-"` // single active session
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Email       string    `json:"email"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
	}
}

// Caller is the authenticated identity threaded from the auth middleware
// into every owner-scoped operation.
type Caller struct {
	UserID uuid.UUID
	Email  string
}

func (u *User) Caller() Caller {
	return Caller{UserID: u.ID, Email: u.Email}
}
