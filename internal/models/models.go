package models

import "fmt"

// Role is the closed set of authorities a user can hold. Routes list the
// roles they accept; there is no hierarchy between the two values.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	Name         string `gorm:"not null"                 json:"name"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         Role   `gorm:"not null"                 json:"role"`
}

type Product struct {
	ID    uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title string  `gorm:"not null"                 json:"title"`
	Price float64 `gorm:"not null"                 json:"price"`
}
