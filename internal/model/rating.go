package model

import "math"

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one patient's score for one dentist.
type Rating struct {
	PatientID int64 `db:"patient_id" json:"patient_id"`
	DentistID int64 `db:"dentist_id" json:"dentist_id"`
	Rating    int   `db:"rating" json:"rating"`
}

// RoundRating rounds an average rating to one decimal place. nil stays nil.
func RoundRating(avg *float64) *float64 {
	if avg == nil {
		return nil
	}
	r := math.Round(*avg*10) / 10
	return &r
}
