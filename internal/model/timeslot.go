package model

import "time"

// Timeslot is a bookable interval offered by one dentist.
type Timeslot struct {
	ID        int64     `db:"id" json:"id"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	DentistID int64     `db:"dentist_id" json:"dentist_id"`
}
