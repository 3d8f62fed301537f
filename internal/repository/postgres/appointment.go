package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

const appointmentColumns = `id, patient_id, dentist_id, timeslot_id, cancelled`

type appointmentRepository struct {
	gw *Gateway
}

func NewAppointmentRepository(gw *Gateway) repository.AppointmentRepository {
	return &appointmentRepository{gw: gw}
}

func (r *appointmentRepository) ListForUser(ctx context.Context, userID int64, span model.Timespan, now time.Time) ([]*model.AppointmentDetail, error) {
	query := `
		SELECT a.id, a.patient_id, a.dentist_id, a.timeslot_id, a.cancelled,
			   d.name AS dentist_name, c.name AS clinic_name,
			   t.start_time, t.end_time
		FROM public.appointment a
		JOIN public.timeslot t ON t.id = a.timeslot_id
		JOIN public."user" d ON d.id = a.dentist_id
		LEFT JOIN public.clinic c ON c.id = d.clinic_id
		WHERE (a.patient_id = $1 OR a.dentist_id = $1)
		AND a.cancelled = false`
	args := []interface{}{userID}

	switch span {
	case model.TimespanPast:
		query += ` AND t.start_time <= $2`
		args = append(args, now)
	case model.TimespanUpcoming:
		query += ` AND t.start_time >= $2`
		args = append(args, now)
	}

	query += ` ORDER BY t.start_time ASC`

	appointments := []*model.AppointmentDetail{}
	if err := r.gw.Select(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list user appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM public.appointment`
	args := []interface{}{}

	if filter.ParticipantID != 0 {
		query += ` WHERE patient_id = $1 OR dentist_id = $1`
		args = append(args, filter.ParticipantID)
	}
	query += ` ORDER BY id`

	appointments := []*model.Appointment{}
	if err := r.gw.Select(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var appointment model.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM public.appointment WHERE id = $1`
	if err := r.gw.Get(ctx, &appointment, query, id); err != nil {
		return nil, notFound("appointment", id, err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO public.appointment (patient_id, dentist_id, timeslot_id, cancelled)
		VALUES ($1, $2, $3, false)
		RETURNING ` + appointmentColumns

	err := r.gw.Get(ctx, appointment, query,
		appointment.PatientID,
		appointment.DentistID,
		appointment.TimeslotID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("timeslot already booked", err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// SetCancelled flips the flag. Reinstating an appointment whose timeslot was
// booked again in the meantime is a conflict.
func (r *appointmentRepository) SetCancelled(ctx context.Context, id int64, cancelled bool) (*model.Appointment, error) {
	var appointment model.Appointment
	query := `UPDATE public.appointment SET cancelled = $1 WHERE id = $2 RETURNING ` + appointmentColumns
	if err := r.gw.Get(ctx, &appointment, query, cancelled, id); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("timeslot already booked", err)
		}
		return nil, notFound("appointment", id, err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) TimeslotBooked(ctx context.Context, timeslotID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM public.appointment WHERE timeslot_id = $1 AND cancelled = false) AS booked`
	rows, err := r.gw.Query(ctx, query, timeslotID)
	if err != nil {
		return false, fmt.Errorf("failed to check timeslot: %w", err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	booked, _ := rows[0]["booked"].(bool)
	return booked, nil
}
