package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Username     string    `json:"username" gorm:"type:varchar(100);uniqueIndex"`
	Email        string    `json:"email" gorm:"type:varchar(100)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Datasets     []Dataset `json:"-" gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
