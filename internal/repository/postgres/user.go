package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
)

const userColumns = `id, username, name, password, role, clinic_id`

type userRepository struct {
	gw *Gateway
}

func NewUserRepository(gw *Gateway) repository.UserRepository {
	return &userRepository{gw: gw}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM public."user" WHERE id = $1`
	if err := r.gw.Get(ctx, &user, query, id); err != nil {
		return nil, notFound("user", id, err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id int64, update model.UserUpdate) (*model.User, error) {
	sets := []string{}
	args := []interface{}{}

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("username", update.Username)
	add("name", update.Name)
	add("password", update.PasswordHash)

	if len(sets) == 0 {
		return nil, errors.New("no user fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE public."user" SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args),
	)

	var user model.User
	if err := r.gw.Get(ctx, &user, query, args...); err != nil {
		return nil, notFound("user", id, err)
	}
	return &user, nil
}

func (r *userRepository) GetDentist(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM public."user" WHERE id = $1 AND role = $2`
	if err := r.gw.Get(ctx, &user, query, id, model.RoleDentist); err != nil {
		return nil, notFound("dentist", id, err)
	}
	return &user, nil
}

func (r *userRepository) ListDentists(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}
	query := `SELECT ` + userColumns + ` FROM public."user" WHERE role = $1 ORDER BY id`
	if err := r.gw.Select(ctx, &users, query, model.RoleDentist); err != nil {
		return nil, fmt.Errorf("failed to list dentists: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListDentistsByClinic(ctx context.Context, clinicID int64) ([]*model.User, error) {
	users := []*model.User{}
	query := `SELECT ` + userColumns + ` FROM public."user" WHERE clinic_id = $1 AND role = $2 ORDER BY id`
	if err := r.gw.Select(ctx, &users, query, clinicID, model.RoleDentist); err != nil {
		return nil, fmt.Errorf("failed to list clinic dentists: %w", err)
	}
	return users, nil
}

func (r *userRepository) AverageRating(ctx context.Context, dentistID int64) (*float64, error) {
	var avg sql.NullFloat64
	query := `SELECT AVG(rating)::float8 FROM public.patient_on_dentist WHERE dentist_id = $1`
	if err := r.gw.Get(ctx, &avg, query, dentistID); err != nil {
		return nil, fmt.Errorf("failed to compute rating: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
