package appointment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/handler"
	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
	"github.com/jwalitptl/scheduling-service/internal/router"
	"github.com/jwalitptl/scheduling-service/pkg/auth"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

const (
	TopicAll    = "v1/appointments/all"
	TopicRead   = "v1/appointments/read"
	TopicCreate = "v1/appointments/create"
	TopicUpdate = "v1/appointments/update"
)

const (
	msgBadID     = "Appointment ID is not a valid number."
	msgBooked    = "Timeslot is already booked."
	timeLayout   = "2006-01-02 15:04 MST"
	defaultError = "Some error occurred"
)

type Handler struct {
	appointments  repository.AppointmentRepository
	timeslots     repository.TimeslotRepository
	notifications repository.NotificationRepository
}

func NewHandler(
	appointments repository.AppointmentRepository,
	timeslots repository.TimeslotRepository,
	notifications repository.NotificationRepository,
) *Handler {
	return &Handler{appointments: appointments, timeslots: timeslots, notifications: notifications}
}

func (h *Handler) RegisterTopics(r *router.Router) error {
	endpoints := []struct {
		topic string
		fn    handler.Endpoint
	}{
		{TopicAll, h.AllAppointments},
		{TopicRead, h.ReadAppointment},
		{TopicCreate, h.CreateAppointment},
		{TopicUpdate, h.UpdateAppointment},
	}
	for _, e := range endpoints {
		if err := r.Handle(e.topic, handler.Adapt(e.fn)); err != nil {
			return err
		}
	}
	return nil
}

type tokenRequest struct {
	Token string `json:"token"`
}

type readRequest struct {
	Token         string         `json:"token"`
	AppointmentID handler.FlexID `json:"appointmentId"`
}

type createRequest struct {
	Token      string         `json:"token"`
	TimeslotID handler.FlexID `json:"timeslotId"`
}

type updateRequest struct {
	Token         string         `json:"token"`
	AppointmentID handler.FlexID `json:"appointmentId"`
	Cancelled     *bool          `json:"cancelled" validate:"required"`
}

// AllAppointments lists every appointment for admins and the caller's own
// appointments for everybody else.
func (h *Handler) AllAppointments(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req tokenRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	claims, err := handler.Authenticate(req.Token)
	if err != nil {
		return nil, err
	}

	filter := model.AppointmentFilter{}
	if !claims.IsAdmin() {
		filter.ParticipantID = int64(claims.ID)
	}
	appointments, err := h.appointments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(defaultError, err)
	}
	return handler.OK("appointments", appointments), nil
}

func (h *Handler) ReadAppointment(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req readRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	claims, err := handler.Authenticate(req.Token)
	if err != nil {
		return nil, err
	}
	if !req.AppointmentID.Valid() {
		return nil, apperrors.BadRequest(msgBadID, nil)
	}

	appointment, err := h.load(ctx, claims, req.AppointmentID.Int64())
	if err != nil {
		return nil, err
	}
	return handler.OK("appointment", appointment), nil
}

// CreateAppointment books a free timeslot for the calling patient and
// notifies the dentist.
func (h *Handler) CreateAppointment(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req createRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	claims, err := handler.Authenticate(req.Token)
	if err != nil {
		return nil, err
	}
	if !claims.IsPatient() {
		return nil, apperrors.Forbidden(nil)
	}
	if !req.TimeslotID.Valid() {
		return nil, apperrors.BadRequest("Timeslot ID is not a valid number.", nil)
	}
	slotID := req.TimeslotID.Int64()

	slot, err := h.timeslots.Get(ctx, slotID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("Timeslot with ID %d not found.", slotID)
		}
		return nil, apperrors.Internal(defaultError, err)
	}

	booked, err := h.appointments.TimeslotBooked(ctx, slotID)
	if err != nil {
		return nil, apperrors.Internal(defaultError, err)
	}
	if booked {
		return nil, apperrors.Conflict(msgBooked, nil)
	}

	appointment := &model.Appointment{
		PatientID:  int64(claims.ID),
		DentistID:  slot.DentistID,
		TimeslotID: slot.ID,
	}
	if err := h.appointments.Create(ctx, appointment); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict(msgBooked, err)
		}
		return nil, apperrors.Internal(defaultError, err)
	}

	h.notify(ctx, slot.DentistID, fmt.Sprintf("New appointment booked for %s.", slot.StartTime.Format(timeLayout)))

	zerolog.Ctx(ctx).Info().
		Int64("appointment_id", appointment.ID).
		Int64("timeslot_id", slot.ID).
		Msg("appointment created")
	return handler.Created("appointment", appointment).WithMessage("New appointment created"), nil
}

// UpdateAppointment sets the cancelled flag and notifies the other
// participants.
func (h *Handler) UpdateAppointment(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req updateRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	claims, err := handler.Authenticate(req.Token)
	if err != nil {
		return nil, err
	}
	if !req.AppointmentID.Valid() {
		return nil, apperrors.BadRequest(msgBadID, nil)
	}
	if err := handler.Validate(&req); err != nil {
		return nil, apperrors.BadRequest("Cancelled flag must be specified.", err)
	}
	id := req.AppointmentID.Int64()

	current, err := h.load(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	if current.Cancelled && !*req.Cancelled {
		booked, err := h.appointments.TimeslotBooked(ctx, current.TimeslotID)
		if err != nil {
			return nil, apperrors.Internal(defaultError, err)
		}
		if booked {
			return nil, apperrors.Conflict(msgBooked, nil)
		}
	}

	updated, err := h.appointments.SetCancelled(ctx, id, *req.Cancelled)
	if err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFoundf("Appointment with ID %d not found.", id)
		case apperrors.Is(err, apperrors.ErrConflict):
			return nil, apperrors.Conflict(msgBooked, err)
		}
		return nil, apperrors.Internal(defaultError, err)
	}

	if current.Cancelled != updated.Cancelled {
		verb := "reinstated"
		if updated.Cancelled {
			verb = "cancelled"
		}
		content := fmt.Sprintf("Appointment #%d was %s.", id, verb)
		for _, userID := range recipients(claims, updated) {
			h.notify(ctx, userID, content)
		}
	}

	msg := fmt.Sprintf("Appointment with ID %d updated successfully.", id)
	return handler.OK("appointment", updated).WithMessage(msg), nil
}

// load fetches an appointment the caller takes part in. Admins may load any.
func (h *Handler) load(ctx context.Context, claims *auth.Claims, id int64) (*model.Appointment, error) {
	appointment, err := h.appointments.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("Appointment with ID %d not found.", id)
		}
		return nil, apperrors.Internal(defaultError, err)
	}
	if !claims.IsAdmin() && !appointment.HasParticipant(int64(claims.ID)) {
		return nil, apperrors.Forbidden(nil)
	}
	return appointment, nil
}

// notify records a notification. The triggering change is already stored,
// so a failure here is logged and not returned.
func (h *Handler) notify(ctx context.Context, userID int64, content string) {
	n := &model.Notification{UserID: userID, Content: content}
	if err := h.notifications.Create(ctx, n); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("failed to store notification")
	}
}

func recipients(claims *auth.Claims, a *model.Appointment) []int64 {
	caller := int64(claims.ID)
	if a.HasParticipant(caller) {
		return []int64{a.Counterpart(caller)}
	}
	return []int64{a.PatientID, a.DentistID}
}
