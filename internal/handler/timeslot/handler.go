package timeslot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/handler"
	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
	"github.com/jwalitptl/scheduling-service/internal/router"
	"github.com/jwalitptl/scheduling-service/pkg/auth"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

const (
	TopicCreate = "v1/timeslots/create"
	TopicDelete = "v1/timeslots/delete"
)

type Handler struct {
	timeslots    repository.TimeslotRepository
	users        repository.UserRepository
	appointments repository.AppointmentRepository
}

func NewHandler(
	timeslots repository.TimeslotRepository,
	users repository.UserRepository,
	appointments repository.AppointmentRepository,
) *Handler {
	return &Handler{timeslots: timeslots, users: users, appointments: appointments}
}

func (h *Handler) RegisterTopics(r *router.Router) error {
	if err := r.Handle(TopicCreate, handler.Adapt(h.CreateTimeslot)); err != nil {
		return err
	}
	return r.Handle(TopicDelete, handler.Adapt(h.DeleteTimeslot))
}

type createRequest struct {
	Token     string         `json:"token"`
	DentistID handler.FlexID `json:"dentistId"`
	StartTime *time.Time     `json:"startTime" validate:"required"`
	EndTime   *time.Time     `json:"endTime" validate:"required"`
}

type deleteRequest struct {
	Token      string         `json:"token"`
	TimeslotID handler.FlexID `json:"timeslotId"`
}

// CreateTimeslot opens a slot for a dentist. Dentists create slots for
// themselves; admins name the dentist.
func (h *Handler) CreateTimeslot(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req createRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	claims, err := handler.Authenticate(req.Token)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && !claims.IsDentist() {
		return nil, apperrors.Forbidden(nil)
	}
	if err := handler.Validate(&req); err != nil {
		return nil, apperrors.BadRequest("Start and end time must be specified", err)
	}
	if !req.StartTime.Before(*req.EndTime) {
		return nil, apperrors.BadRequest("Start time must be before end time", nil)
	}
	dentistID, err := h.resolveDentist(ctx, claims, req.DentistID)
	if err != nil {
		return nil, err
	}

	slot := &model.Timeslot{
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		DentistID: dentistID,
	}
	if err := h.timeslots.Create(ctx, slot); err != nil {
		return nil, apperrors.Internal("Some error occurred", err)
	}

	zerolog.Ctx(ctx).Info().Int64("timeslot_id", slot.ID).Int64("dentist_id", dentistID).Msg("timeslot created")
	return handler.Created("timeslot", slot).WithMessage("New timeslot created"), nil
}

// DeleteTimeslot removes a slot that no active appointment holds.
func (h *Handler) DeleteTimeslot(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req deleteRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	claims, err := handler.Authenticate(req.Token)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && !claims.IsDentist() {
		return nil, apperrors.Forbidden(nil)
	}
	if !req.TimeslotID.Valid() {
		return nil, apperrors.BadRequest("Timeslot ID is not a valid number.", nil)
	}
	id := req.TimeslotID.Int64()

	slot, err := h.timeslots.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr500(err, id)
	}
	if claims.IsDentist() && !claims.Owns(slot.DentistID) {
		return nil, apperrors.Forbidden(nil)
	}

	booked, err := h.appointments.TimeslotBooked(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Some error occurred", err)
	}
	if booked {
		return nil, apperrors.Conflict("Timeslot has an active appointment.", nil)
	}

	deleted, err := h.timeslots.Delete(ctx, id)
	if err != nil {
		return nil, notFoundOr500(err, id)
	}

	zerolog.Ctx(ctx).Info().Int64("timeslot_id", id).Msg("timeslot deleted")
	return handler.OK("timeslot", deleted), nil
}

func (h *Handler) resolveDentist(ctx context.Context, claims *auth.Claims, requested handler.FlexID) (int64, error) {
	switch {
	case claims.IsDentist():
		if requested.Present() && (!requested.Valid() || !claims.Owns(requested.Int64())) {
			return 0, apperrors.Forbidden(nil)
		}
		return int64(claims.ID), nil
	case claims.IsAdmin():
		if !requested.Valid() {
			return 0, apperrors.BadRequest("Dentist ID is not a valid number.", nil)
		}
		if _, err := h.users.GetDentist(ctx, requested.Int64()); err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return 0, apperrors.NotFoundf("Dentist not found.")
			}
			return 0, apperrors.Internal("Some error occurred", err)
		}
		return requested.Int64(), nil
	default:
		return 0, apperrors.Forbidden(nil)
	}
}

func notFoundOr500(err error, id int64) error {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFoundf("Timeslot with ID %d not found.", id)
	}
	return apperrors.Internal("Some error occurred", err)
}
