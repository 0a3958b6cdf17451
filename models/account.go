// File: models/account.go
package models

import "time"

// Role identifies which kind of account a record belongs to.
type Role string

const (
	RoleBooker Role = "booker"
	RoleDriver Role = "driver"
	RoleHelper Role = "helper"
)

// IsProvider reports whether the role can receive booking proposals.
func (r Role) IsProvider() bool {
	return r == RoleDriver || r == RoleHelper
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleBooker || r.IsProvider()
}

// Account is the profile document shared by bookers, drivers and helpers.
// Provider-only fields stay empty for bookers.
type Account struct {
	ID           string    `bson:"id" json:"id"`
	Role         Role      `bson:"role" json:"role"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Rating       int       `bson:"rating" json:"rating"`         // floor of the running mean, 0-5
	TotalTrips   int       `bson:"totalTrips" json:"totalTrips"` // ratings received so far
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`

	// Provider profile.
	Rate              float64    `bson:"rate,omitempty" json:"rate,omitempty"`
	CarType           string     `bson:"carType,omitempty" json:"carType,omitempty"`
	Location          string     `bson:"location,omitempty" json:"location,omitempty"`
	LicenseClass      string     `bson:"licenseClass,omitempty" json:"licenseClass,omitempty"`
	LicenseIssuedDate *time.Time `bson:"licenseIssuedDate,omitempty" json:"licenseIssuedDate,omitempty"`
	DrivingExperience int        `bson:"drivingExperience,omitempty" json:"drivingExperience,omitempty"`
}

// AccountRegistration is the payload accepted when an account is created.
type AccountRegistration struct {
	Name              string     `json:"name" binding:"required"`
	Email             string     `json:"email" binding:"required,email"`
	Password          string     `json:"password" binding:"required,min=8"`
	Phone             string     `json:"phone"`
	Rate              float64    `json:"rate" binding:"gte=0"`
	CarType           string     `json:"carType"`
	Location          string     `json:"location"`
	LicenseClass      string     `json:"licenseClass"`
	LicenseIssuedDate *time.Time `json:"licenseIssuedDate"`
	DrivingExperience int        `json:"drivingExperience" binding:"gte=0"`
}

// AccountUpdate carries the mutable profile fields. Nil fields are left untouched.
type AccountUpdate struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"email" binding:"omitempty,email"`
	Phone             *string  `json:"phone"`
	Rate              *float64 `json:"rate" binding:"omitempty,gte=0"`
	CarType           *string  `json:"carType"`
	Location          *string  `json:"location"`
	LicenseClass      *string  `json:"licenseClass"`
	DrivingExperience *int     `json:"drivingExperience" binding:"omitempty,gte=0"`
}
