package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/scheduling-service/internal/model"
)

// All repository interfaces in one file. Lookups of a single row return a
// NotFound AppError when the row does not exist.
type (
	ClinicRepository interface {
		List(ctx context.Context) ([]*model.Clinic, error)
		Get(ctx context.Context, id int64) (*model.Clinic, error)
		Create(ctx context.Context, clinic *model.Clinic) error
		Update(ctx context.Context, id int64, update model.ClinicUpdate) (*model.Clinic, error)
		// Delete detaches every user from the clinic and removes it.
		Delete(ctx context.Context, id int64) (*model.Clinic, error)
	}

	UserRepository interface {
		Get(ctx context.Context, id int64) (*model.User, error)
		Update(ctx context.Context, id int64, update model.UserUpdate) (*model.User, error)
		GetDentist(ctx context.Context, id int64) (*model.User, error)
		ListDentists(ctx context.Context) ([]*model.User, error)
		ListDentistsByClinic(ctx context.Context, clinicID int64) ([]*model.User, error)
		// AverageRating returns nil when the dentist has not been rated.
		AverageRating(ctx context.Context, dentistID int64) (*float64, error)
	}

	NotificationRepository interface {
		// ListByUser returns the newest notifications first. limit <= 0
		// returns all of them.
		ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
		MarkAllRead(ctx context.Context, userID int64) (int64, error)
		Create(ctx context.Context, notification *model.Notification) error
	}

	AppointmentRepository interface {
		// ListForUser returns the user's non-cancelled appointments as a
		// patient or dentist, restricted by span relative to now.
		ListForUser(ctx context.Context, userID int64, span model.Timespan, now time.Time) ([]*model.AppointmentDetail, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Create(ctx context.Context, appointment *model.Appointment) error
		SetCancelled(ctx context.Context, id int64, cancelled bool) (*model.Appointment, error)
		// TimeslotBooked reports whether a non-cancelled appointment holds
		// the timeslot.
		TimeslotBooked(ctx context.Context, timeslotID int64) (bool, error)
	}

	TimeslotRepository interface {
		Get(ctx context.Context, id int64) (*model.Timeslot, error)
		Create(ctx context.Context, timeslot *model.Timeslot) error
		Delete(ctx context.Context, id int64) (*model.Timeslot, error)
	}

	RatingRepository interface {
		Upsert(ctx context.Context, rating *model.Rating) error
	}
)
