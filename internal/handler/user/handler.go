package user

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/handler"
	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
	"github.com/jwalitptl/scheduling-service/pkg/security"
)

const (
	TopicUpdate              = "v1/users/update"
	TopicRead                = "v1/users/read"
	TopicNotifications       = "v1/users/notifications/all"
	TopicNotificationsUpdate = "v1/users/notifications/update"
	TopicAppointments        = "v1/users/appointments/all"
)

const (
	msgIDNotFound = "User ID not found."
	msgNotFound   = "User not found."
)

type Handler struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	appointments  repository.AppointmentRepository
	hasher        security.PasswordHasher
	now           func() time.Time
}

type Option func(*Handler)

// WithClock replaces time.Now for timespan filtering.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func NewHandler(
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	appointments repository.AppointmentRepository,
	hasher security.PasswordHasher,
	opts ...Option,
) *Handler {
	h := &Handler{
		users:         users,
		notifications: notifications,
		appointments:  appointments,
		hasher:        hasher,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterTopics(r *router.Router) error {
	endpoints := []struct {
		topic string
		fn    handler.Endpoint
	}{
		{TopicUpdate, h.UpdateUser},
		{TopicRead, h.ReadUser},
		{TopicNotifications, h.ReadNotifications},
		{TopicNotificationsUpdate, h.MarkNotificationsRead},
		{TopicAppointments, h.ReadAppointments},
	}
	for _, e := range endpoints {
		if err := r.Handle(e.topic, handler.Adapt(e.fn)); err != nil {
			return err
		}
	}
	return nil
}

type userFields struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

type updateUserRequest struct {
	UserID      handler.FlexID `json:"userId"`
	RequestBody *userFields    `json:"requestBody"`
}

type userIDRequest struct {
	Token  string         `json:"token"`
	UserID handler.FlexID `json:"userId"`
}

type notificationsRequest struct {
	Token  string         `json:"token"`
	UserID handler.FlexID `json:"userId"`
	Limit  *int           `json:"limit" validate:"omitempty,gt=0"`
}

type appointmentsRequest struct {
	UserID   handler.FlexID `json:"userId"`
	Timespan string         `json:"timespan"`
}

// UpdateUser applies a partial update. Any caller may update any user.
func (h *Handler) UpdateUser(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req updateUserRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	if !req.UserID.Valid() {
		return nil, apperrors.BadRequest("Invalid payload. User ID is not a valid number.", nil)
	}
	id := req.UserID.Int64()

	var fields userFields
	if req.RequestBody != nil {
		fields = *req.RequestBody
	}
	update := model.UserUpdate{
		Username: nonEmpty(fields.Username),
		Name:     nonEmpty(fields.Name),
	}
	password := nonEmpty(fields.Password)
	if update.Empty() && password == nil {
		return nil, apperrors.BadRequest("No fields provided for update.", nil)
	}
	if password != nil && len(*password) > security.MaxPasswordBytes {
		return nil, apperrors.BadRequest("Password must be at most 72 bytes.", security.ErrPasswordTooLong)
	}

	if _, err := h.users.Get(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("User with ID %d not found.", id)
		}
		return nil, apperrors.Internal("Internal Server Error", err)
	}

	if password != nil {
		hash, err := h.hasher.Hash(*password)
		if errors.Is(err, security.ErrPasswordTooLong) {
			return nil, apperrors.BadRequest("Password must be at most 72 bytes.", err)
		}
		if err != nil {
			return nil, apperrors.Internal("Internal Server Error", err)
		}
		update.PasswordHash = &hash
	}

	user, err := h.users.Update(ctx, id, update)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Internal("Failed to retrieve updated user.", err)
		}
		return nil, apperrors.Internal("Internal Server Error", err)
	}

	zerolog.Ctx(ctx).Info().Int64("user_id", id).Msg("user updated")
	msg := fmt.Sprintf("User details for user with ID %d updated successfully.", id)
	return handler.OK("user", user).WithMessage(msg), nil
}

// ReadUser accepts {"userId": id} or a bare id as the whole payload.
func (h *Handler) ReadUser(ctx context.Context, payload []byte) (*handler.Response, error) {
	var id handler.FlexID
	trimmed := bytes.TrimSpace(payload)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var req userIDRequest
		if err := handler.Decode(trimmed, &req); err != nil {
			return nil, err
		}
		id = req.UserID
	} else if err := handler.Decode(trimmed, &id); err != nil {
		return nil, err
	}

	if !id.Present() {
		return nil, apperrors.NotFoundf(msgIDNotFound)
	}
	if !id.Valid() {
		return nil, apperrors.NotFoundf(msgNotFound)
	}
	if id.Int64() == 0 {
		return nil, apperrors.NotFoundf(msgIDNotFound)
	}

	user, err := h.users.Get(ctx, id.Int64())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf(msgNotFound)
		}
		return nil, apperrors.Internal("Internal Server Error", err)
	}

	avg, err := h.users.AverageRating(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("Internal Server Error", err)
	}

	return handler.Created("user", &model.UserProfile{User: user, AverageRating: model.RoundRating(avg)}), nil
}

func (h *Handler) ReadNotifications(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req notificationsRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	userID, err := authorizeOwner(req.Token, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := handler.Validate(&req); err != nil {
		return nil, err
	}
	if err := h.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	limit := 0
	if req.Limit != nil {
		limit = *req.Limit
	}
	notifications, err := h.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("Internal Server Error", err)
	}
	return handler.OK("notifications", notifications), nil
}

// MarkNotificationsRead flags every notification of the caller as read.
// Repeating it is a no-op.
func (h *Handler) MarkNotificationsRead(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req userIDRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	userID, err := authorizeOwner(req.Token, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := h.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	n, err := h.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Internal Server Error", err)
	}

	zerolog.Ctx(ctx).Debug().Int64("user_id", userID).Int64("updated", n).Msg("notifications marked read")
	return &handler.Response{Status: http.StatusOK, Message: "Notifications marked as read."}, nil
}

// ReadAppointments lists the user's non-cancelled appointments. No token is
// required.
func (h *Handler) ReadAppointments(ctx context.Context, payload []byte) (*handler.Response, error) {
	var req appointmentsRequest
	if err := handler.Decode(payload, &req); err != nil {
		return nil, err
	}
	if !req.UserID.Valid() || req.UserID.Int64() == 0 {
		return nil, apperrors.NotFoundf(msgIDNotFound)
	}
	span, err := model.ParseTimespan(req.Timespan)
	if err != nil {
		return nil, apperrors.BadRequest(`Invalid timespan. Use "past" or "upcoming".`, err)
	}

	userID := req.UserID.Int64()
	if err := h.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	appointments, err := h.appointments.ListForUser(ctx, userID, span, h.now())
	if err != nil {
		return nil, apperrors.Internal("Internal Server Error", err)
	}
	return handler.OK("appointments", appointments), nil
}

// authorizeOwner requires a decodable token whose id is the requested user.
func authorizeOwner(token string, id handler.FlexID) (int64, error) {
	claims, err := handler.Authenticate(token)
	if err != nil {
		return 0, err
	}
	if !id.Valid() || id.Int64() == 0 {
		return 0, apperrors.NotFoundf(msgIDNotFound)
	}
	if !claims.Owns(id.Int64()) {
		return 0, apperrors.Forbidden(nil)
	}
	return id.Int64(), nil
}

func (h *Handler) ensureUser(ctx context.Context, id int64) error {
	if _, err := h.users.Get(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundf(msgNotFound)
		}
		return apperrors.Internal("Internal Server Error", err)
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
