package clinic

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/handler"
	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

const (
	TopicRead     = "v1/clinics/read"
	TopicCreate   = "v1/clinics/create"
	TopicUpdate   = "v1/clinics/update"
	TopicDelete   = "v1/clinics/delete"
	TopicGet      = "v1/clinics/get"
	TopicDentists = "v1/clinics/dentists"
)

const (
	msgMissingFields = "Name of the clinic, its longitude and latitude must be specified"
	msgInvalidID     = "Clinic ID is not a valid number."
	msgNoFields      = "No fields provided for update."
	msgIDNotFound    = "Clinic ID not found."
	msgNotFound      = "Clinic not found."
)

type Handler struct {
	clinics repository.ClinicRepository
	users   repository.UserRepository
}

func NewHandler(clinics repository.ClinicRepository, users repository.UserRepository) *Handler {
	return &Handler{clinics: clinics, users: users}
}

func (h *Handler) RegisterTopics(r *router.Router) error {
	endpoints := []struct {
		topic string
		fn    handler.Endpoint
	}{
		{TopicRead, h.ReadClinics},
		{TopicCreate, h.CreateClinic},
		{TopicUpdate, h.UpdateClinic},
		{TopicDelete, h.DeleteClinic},
		{TopicGet, h.GetClinic},
		{TopicDentists, h.GetDentistsForClinic},
	}
	for _, e := range endpoints {
		if err := r.Handle(e.topic, handler.Adapt(e.fn)); err != nil {
			return err
		}
	}
	return nil
}

type createClinicRequest struct {
	Token     string   `json:"token"`
	Name      *string  `json:"name" validate:"required,min=1"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

type clinicFields struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type updateClinicRequest struct {
	Token       string         `json:"token"`
	ClinicID    handler.FlexID `json:"clinicId"`
	RequestBody *clinicFields  `json:"requestBody"`
}

type clinicIDRequest struct {
	Token    string         `json:"token"`
	ClinicID handler.FlexID `json:"clinicId"`
}

func (h *Handler) ReadClinics(ctx context.Context, payload []byte) (*handler.Response, error) {
	clinics, err := h.clinics.List(ctx)
	if err != nil {
		return nil, apperrors.BadRequest("No clinics found", err)
	}
	return handler.OK("clinics", clinics), nil
}

func (h *Handler) CreateClinic(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req createClinicRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	if _, err := handler.RequireAdmin(req.Token); err != nil {
		return nil, err
	}
	if err := handler.Validate(&req); err != nil {
		return nil, apperrors.BadRequest(msgMissingFields, err)
	}

	clinic := &model.Clinic{
		Name:      *req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}
	if err := h.clinics.Create(ctx, clinic); err != nil {
		return nil, apperrors.Internal("Some error occurred", err)
	}

	zerolog.Ctx(ctx).Info().Int64("clinic_id", clinic.ID).Msg("clinic created")
	return handler.Created("clinic", clinic).WithMessage("New clinic created"), nil
}

func (h *Handler) UpdateClinic(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req updateClinicRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	if _, err := handler.RequireAdmin(req.Token); err != nil {
		return nil, err
	}
	if !req.ClinicID.Valid() {
		return nil, apperrors.BadRequest(msgInvalidID, nil)
	}

	id := req.ClinicID.Int64()
	var update model.ClinicUpdate
	if req.RequestBody != nil {
		update = model.ClinicUpdate{
			Name:      req.RequestBody.Name,
			Latitude:  req.RequestBody.Latitude,
			Longitude: req.RequestBody.Longitude,
		}
	}
	if update.Empty() {
		return nil, apperrors.BadRequest(msgNoFields, nil)
	}

	if _, err := h.clinics.Get(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("Clinic with ID %d not found.", id)
		}
		return nil, apperrors.Internal("Some error occurred", err)
	}

	clinic, err := h.clinics.Update(ctx, id, update)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Internal("Failed to retrieve updated clinic.", err)
		}
		return nil, apperrors.Internal("Some error occurred", err)
	}

	msg := fmt.Sprintf("Clinic with ID %d updated successfully.", id)
	return handler.OK("clinic", clinic).WithMessage(msg), nil
}

func (h *Handler) DeleteClinic(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req clinicIDRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	if _, err := handler.RequireAdmin(req.Token); err != nil {
		return nil, err
	}
	if !req.ClinicID.Valid() {
		return nil, apperrors.BadRequest(msgInvalidID, nil)
	}

	clinic, err := h.clinics.Delete(ctx, req.ClinicID.Int64())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("Clinic with this id is not found")
		}
		return nil, apperrors.Internal("Some error occurred", err)
	}

	zerolog.Ctx(ctx).Info().Int64("clinic_id", clinic.ID).Msg("clinic deleted")
	return handler.OK("clinic", clinic), nil
}

// GetClinic needs no token. An id that is not a number is reported as not
// found.
func (h *Handler) GetClinic(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req clinicIDRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	if !req.ClinicID.Present() {
		return nil, apperrors.NotFoundf(msgIDNotFound)
	}
	if !req.ClinicID.Valid() {
		return nil, apperrors.NotFoundf(msgNotFound)
	}

	clinic, err := h.clinics.Get(ctx, req.ClinicID.Int64())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf(msgNotFound)
		}
		return nil, apperrors.Internal("Internal Server Error", err)
	}
	return handler.OK("clinic", clinic), nil
}

func (h *Handler) GetDentistsForClinic(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req clinicIDRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	if !req.ClinicID.Present() {
		return nil, apperrors.NotFoundf(msgIDNotFound)
	}
	if !req.ClinicID.Valid() {
		return nil, apperrors.NotFoundf("No dentists found.")
	}

	dentists, err := h.users.ListDentistsByClinic(ctx, req.ClinicID.Int64())
	if err != nil {
		return nil, apperrors.Internal("Internal Server Error", err)
	}
	if len(dentists) == 0 {
		return nil, apperrors.NotFoundf("No dentists found.")
	}
	return handler.OK("dentists", dentists), nil
}
