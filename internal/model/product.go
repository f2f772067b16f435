package model

import "github.com/google/uuid"

type Product struct {
	BaseModel
	Name   string    `gorm:"type:varchar(255);not null" json:"name"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	User   *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
