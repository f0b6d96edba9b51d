package model

import (
	"time"
)

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a federated identity record. A row is created on the
// first successful login and its profile fields are refreshed on every
// subsequent login. Users are never deleted by this service.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	GoogleID  string    `json:"-" gorm:"type:varchar(100);uniqueIndex"`
	Email     string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	Picture   string    `json:"picture,omitempty" gorm:"type:varchar(512)"`
	Role      string    `json:"role" gorm:"type:varchar(20);default:customer"`
	Provider  string    `json:"provider" gorm:"type:varchar(20);default:google"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
