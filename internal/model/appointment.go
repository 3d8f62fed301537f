package model

import (
	"fmt"
	"time"
)

type Appointment struct {
	ID         int64 `db:"id" json:"id"`
	PatientID  int64 `db:"patient_id" json:"patient_id"`
	DentistID  int64 `db:"dentist_id" json:"dentist_id"`
	TimeslotID int64 `db:"timeslot_id" json:"timeslot_id"`
	Cancelled  bool  `db:"cancelled" json:"cancelled"`
}

// HasParticipant reports whether the user is the patient or the dentist.
func (a *Appointment) HasParticipant(userID int64) bool {
	return a.PatientID == userID || a.DentistID == userID
}

// Counterpart returns the participant that is not userID.
func (a *Appointment) Counterpart(userID int64) int64 {
	if a.PatientID == userID {
		return a.DentistID
	}
	return a.PatientID
}

// AppointmentDetail is an appointment joined with its dentist, clinic and
// timeslot.
type AppointmentDetail struct {
	Appointment
	DentistName string    `db:"dentist_name" json:"dentist_name"`
	ClinicName  *string   `db:"clinic_name" json:"clinic_name"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
}

// Timespan restricts appointment listings relative to the current time.
type Timespan string

const (
	TimespanAll      Timespan = ""
	TimespanPast     Timespan = "past"
	TimespanUpcoming Timespan = "upcoming"
)

// ParseTimespan accepts "", "past" and "upcoming".
func ParseTimespan(s string) (Timespan, error) {
	switch ts := Timespan(s); ts {
	case TimespanAll, TimespanPast, TimespanUpcoming:
		return ts, nil
	default:
		return "", fmt.Errorf("unknown timespan %q", s)
	}
}

// AppointmentFilter selects appointments by participant. A zero
// ParticipantID selects every appointment.
type AppointmentFilter struct {
	ParticipantID int64
}
