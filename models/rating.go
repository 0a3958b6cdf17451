package models

// RatingUpdate is one party rating the other on an accepted booking.
type RatingUpdate struct {
	BookerEmail string `json:"bookerEmail"`
	BookingID   string `json:"bookingId"`
	RaterRole   Role   `json:"raterRole"`
	RatedRole   Role   `json:"ratedRole"`
	RatedEmail  string `json:"ratedEmail"`
	Rating      int    `json:"rating"`
}

// RatingResult is the rated account's reputation after the update.
type RatingResult struct {
	RatedEmail string `json:"ratedEmail"`
	Rating     int    `json:"rating"`
	TotalTrips int    `json:"totalTrips"`
}

// ApplyRating folds one more rating into a floored running mean.
func ApplyRating(oldAvg, oldCount, rating int) (avg, count int) {
	count = oldCount + 1
	avg = (oldAvg*(count-1) + rating) / count
	return avg, count
}
