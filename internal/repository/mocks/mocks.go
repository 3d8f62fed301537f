// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
)

var (
	_ repository.ClinicRepository       = (*ClinicRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.NotificationRepository = (*NotificationRepository)(nil)
	_ repository.AppointmentRepository  = (*AppointmentRepository)(nil)
	_ repository.TimeslotRepository     = (*TimeslotRepository)(nil)
	_ repository.RatingRepository       = (*RatingRepository)(nil)
)

type ClinicRepository struct{ mock.Mock }

func (m *ClinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	args := m.Called(ctx)
	clinics, _ := args.Get(0).([]*model.Clinic)
	return clinics, args.Error(1)
}

func (m *ClinicRepository) Get(ctx context.Context, id int64) (*model.Clinic, error) {
	args := m.Called(ctx, id)
	clinic, _ := args.Get(0).(*model.Clinic)
	return clinic, args.Error(1)
}

func (m *ClinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	return m.Called(ctx, clinic).Error(0)
}

func (m *ClinicRepository) Update(ctx context.Context, id int64, update model.ClinicUpdate) (*model.Clinic, error) {
	args := m.Called(ctx, id, update)
	clinic, _ := args.Get(0).(*model.Clinic)
	return clinic, args.Error(1)
}

func (m *ClinicRepository) Delete(ctx context.Context, id int64) (*model.Clinic, error) {
	args := m.Called(ctx, id)
	clinic, _ := args.Get(0).(*model.Clinic)
	return clinic, args.Error(1)
}

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, id int64, update model.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, update)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetDentist(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) ListDentists(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*model.User)
	return users, args.Error(1)
}

func (m *UserRepository) ListDentistsByClinic(ctx context.Context, clinicID int64) ([]*model.User, error) {
	args := m.Called(ctx, clinicID)
	users, _ := args.Get(0).([]*model.User)
	return users, args.Error(1)
}

func (m *UserRepository) AverageRating(ctx context.Context, dentistID int64) (*float64, error) {
	args := m.Called(ctx, dentistID)
	avg, _ := args.Get(0).(*float64)
	return avg, args.Error(1)
}

type NotificationRepository struct{ mock.Mock }

func (m *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	args := m.Called(ctx, userID, limit)
	notifications, _ := args.Get(0).([]*model.Notification)
	return notifications, args.Error(1)
}

func (m *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return m.Called(ctx, notification).Error(0)
}

type AppointmentRepository struct{ mock.Mock }

func (m *AppointmentRepository) ListForUser(ctx context.Context, userID int64, span model.Timespan, now time.Time) ([]*model.AppointmentDetail, error) {
	args := m.Called(ctx, userID, span, now)
	appointments, _ := args.Get(0).([]*model.AppointmentDetail)
	return appointments, args.Error(1)
}

func (m *AppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	args := m.Called(ctx, filter)
	appointments, _ := args.Get(0).([]*model.Appointment)
	return appointments, args.Error(1)
}

func (m *AppointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	appointment, _ := args.Get(0).(*model.Appointment)
	return appointment, args.Error(1)
}

func (m *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return m.Called(ctx, appointment).Error(0)
}

func (m *AppointmentRepository) SetCancelled(ctx context.Context, id int64, cancelled bool) (*model.Appointment, error) {
	args := m.Called(ctx, id, cancelled)
	appointment, _ := args.Get(0).(*model.Appointment)
	return appointment, args.Error(1)
}

func (m *AppointmentRepository) TimeslotBooked(ctx context.Context, timeslotID int64) (bool, error) {
	args := m.Called(ctx, timeslotID)
	return args.Bool(0), args.Error(1)
}

type TimeslotRepository struct{ mock.Mock }

func (m *TimeslotRepository) Get(ctx context.Context, id int64) (*model.Timeslot, error) {
	args := m.Called(ctx, id)
	slot, _ := args.Get(0).(*model.Timeslot)
	return slot, args.Error(1)
}

func (m *TimeslotRepository) Create(ctx context.Context, slot *model.Timeslot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *TimeslotRepository) Delete(ctx context.Context, id int64) (*model.Timeslot, error) {
	args := m.Called(ctx, id)
	slot, _ := args.Get(0).(*model.Timeslot)
	return slot, args.Error(1)
}

type RatingRepository struct{ mock.Mock }

func (m *RatingRepository) Upsert(ctx context.Context, rating *model.Rating) error {
	return m.Called(ctx, rating).Error(0)
}
