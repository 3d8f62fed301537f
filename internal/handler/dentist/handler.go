package dentist

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/handler"
	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

const (
	TopicRead   = "v1/dentists/read"
	TopicRate   = "v1/dentists/ratings/create"
	msgNotFound = "Dentist not found."
	msgBadID    = "Dentist ID is not a valid number."
)

type Handler struct {
	users   repository.UserRepository
	ratings repository.RatingRepository
}

func NewHandler(users repository.UserRepository, ratings repository.RatingRepository) *Handler {
	return &Handler{users: users, ratings: ratings}
}

func (h *Handler) RegisterTopics(r *router.Router) error {
	if err := r.Handle(TopicRead, handler.Adapt(h.ReadDentists)); err != nil {
		return err
	}
	return r.Handle(TopicRate, handler.Adapt(h.RateDentist))
}

type readRequest struct {
	DentistID handler.FlexID `json:"dentistId"`
}

type rateRequest struct {
	Token     string         `json:"token"`
	DentistID handler.FlexID `json:"dentistId"`
	Rating    *int           `json:"rating" validate:"required,min=1,max=5"`
}

// ReadDentists returns one dentist when dentistId is given, every dentist
// otherwise. Each carries its rounded average rating.
func (h *Handler) ReadDentists(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req readRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}

	if req.DentistID.Present() {
		if !req.DentistID.Valid() {
			return nil, apperrors.BadRequest(msgBadID, nil)
		}
		dentist, err := h.users.GetDentist(ctx, req.DentistID.Int64())
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NotFoundf(msgNotFound)
			}
			return nil, apperrors.Internal("Internal Server Error", err)
		}
		profile, err := h.profile(ctx, dentist)
		if err != nil {
			return nil, err
		}
		return handler.OK("dentist", profile), nil
	}

	dentists, err := h.users.ListDentists(ctx)
	if err != nil {
		return nil, apperrors.Internal("Internal Server Error", err)
	}
	profiles := make([]*model.UserProfile, 0, len(dentists))
	for _, d := range dentists {
		p, err := h.profile(ctx, d)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return handler.OK("dentists", profiles), nil
}

// RateDentist stores the calling patient's rating, replacing an earlier one.
func (h *Handler) RateDentist(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req rateRequest
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
	if !req.DentistID.Valid() {
		return nil, apperrors.BadRequest(msgBadID, nil)
	}
	if err := handler.Validate(&req); err != nil {
		return nil, apperrors.BadRequest("Rating must be an integer between 1 and 5.", err)
	}

	if _, err := h.users.GetDentist(ctx, req.DentistID.Int64()); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf(msgNotFound)
		}
		return nil, apperrors.Internal("Internal Server Error", err)
	}

	rating := &model.Rating{
		PatientID: int64(claims.ID),
		DentistID: req.DentistID.Int64(),
		Rating:    *req.Rating,
	}
	if err := h.ratings.Upsert(ctx, rating); err != nil {
		return nil, apperrors.Internal("Some error occurred", err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("dentist_id", rating.DentistID).
		Int64("patient_id", rating.PatientID).
		Msg("dentist rated")
	return handler.Created("rating", rating).WithMessage("Rating saved"), nil
}

func (h *Handler) profile(ctx context.Context, dentist *model.User) (*model.UserProfile, error) {
	avg, err := h.users.AverageRating(ctx, dentist.ID)
	if err != nil {
		return nil, apperrors.Internal("Internal Server Error", err)
	}
	return &model.UserProfile{User: dentist, AverageRating: model.RoundRating(avg)}, nil
}
