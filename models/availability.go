package models

import "time"

// DaysPerWeek is the length of every weekly schedule, Sunday first.
const DaysPerWeek = 7

// DayAvailability is one day of a provider's weekly schedule.
type DayAvailability struct {
	Available bool   `bson:"available" json:"available"`
	From      string `bson:"from,omitempty" json:"from,omitempty" validate:"omitempty,datetime=15:04"`
	To        string `bson:"to,omitempty" json:"to,omitempty" validate:"omitempty,datetime=15:04"`
}

// Availability is the single weekly schedule a provider publishes.
type Availability struct {
	ID           string            `bson:"id" json:"id"`
	Email        string            `bson:"email" json:"email"`
	Role         Role              `bson:"role" json:"role"`
	DateUpdated  time.Time         `bson:"dateUpdated" json:"dateUpdated"` // local midnight of the Sunday it was set
	Availability []DayAvailability `bson:"availability" json:"availability"`
}

// AvailableProvider is a provider profile joined with its current week.
// On key collision the profile wins: ID and Email come from the account.
// AvailabilityID keeps the schedule's own identity reachable.
type AvailableProvider struct {
	ID                string            `json:"id"`
	Email             string            `json:"email"`
	Role              Role              `json:"role"`
	Name              string            `json:"name"`
	Phone             string            `json:"phone,omitempty"`
	Rate              float64           `json:"rate,omitempty"`
	Rating            int               `json:"rating"`
	TotalTrips        int               `json:"totalTrips"`
	CarType           string            `json:"carType,omitempty"`
	Location          string            `json:"location,omitempty"`
	LicenseClass      string            `json:"licenseClass,omitempty"`
	DrivingExperience int               `json:"drivingExperience,omitempty"`
	AvailabilityID    string            `json:"availabilityId"`
	DateUpdated       time.Time         `json:"dateUpdated"`
	Availability      []DayAvailability `json:"availability"`
}

// MergeAvailability builds the typed projection of a schedule and its profile.
func MergeAvailability(av Availability, acct Account) AvailableProvider {
	return AvailableProvider{
		ID:                acct.ID,
		Email:             acct.Email,
		Role:              acct.Role,
		Name:              acct.Name,
		Phone:             acct.Phone,
		Rate:              acct.Rate,
		Rating:            acct.Rating,
		TotalTrips:        acct.TotalTrips,
		CarType:           acct.CarType,
		Location:          acct.Location,
		LicenseClass:      acct.LicenseClass,
		DrivingExperience: acct.DrivingExperience,
		AvailabilityID:    av.ID,
		DateUpdated:       av.DateUpdated,
		Availability:      av.Availability,
	}
}
