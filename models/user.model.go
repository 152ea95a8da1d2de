package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

type User struct {
	gorm.Model
	Name                string    `gorm:"default:''"`
	Email               string    `gorm:"unique;not null"`
	Role                string    `gorm:"default:'STUDENT'"` // STUDENT, ADMIN
	Password            string    `gorm:"not null"`
	LastLogin           time.Time `gorm:"default:NULL"`
	FailedLoginAttempts int       `gorm:"default:0"`
	IsBlocked           bool      `gorm:"default:false"`
	IsDeleted           bool      `gorm:"default:false"`
}
