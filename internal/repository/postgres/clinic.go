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

const clinicColumns = `id, name, latitude, longitude`

type clinicRepository struct {
	gw *Gateway
}

func NewClinicRepository(gw *Gateway) repository.ClinicRepository {
	return &clinicRepository{gw: gw}
}

func (r *clinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	clinics := []*model.Clinic{}
	query := `SELECT ` + clinicColumns + ` FROM public.clinic ORDER BY id`
	if err := r.gw.Select(ctx, &clinics, query); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

func (r *clinicRepository) Get(ctx context.Context, id int64) (*model.Clinic, error) {
	var clinic model.Clinic
	query := `SELECT ` + clinicColumns + ` FROM public.clinic WHERE id = $1`
	if err := r.gw.Get(ctx, &clinic, query, id); err != nil {
		return nil, notFound("clinic", id, err)
	}
	return &clinic, nil
}

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO public.clinic (name, latitude, longitude)
		VALUES ($1, $2, $3)
		RETURNING ` + clinicColumns

	if err := r.gw.Get(ctx, clinic, query, clinic.Name, clinic.Latitude, clinic.Longitude); err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) Update(ctx context.Context, id int64, update model.ClinicUpdate) (*model.Clinic, error) {
	sets := []string{}
	args := []interface{}{}

	if update.Name != nil {
		args = append(args, *update.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if update.Latitude != nil {
		args = append(args, *update.Latitude)
		sets = append(sets, fmt.Sprintf("latitude = $%d", len(args)))
	}
	if update.Longitude != nil {
		args = append(args, *update.Longitude)
		sets = append(sets, fmt.Sprintf("longitude = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil, errors.New("no clinic fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE public.clinic SET %s WHERE id = $%d RETURNING `+clinicColumns,
		strings.Join(sets, ", "), len(args),
	)

	var clinic model.Clinic
	if err := r.gw.Get(ctx, &clinic, query, args...); err != nil {
		return nil, notFound("clinic", id, err)
	}
	return &clinic, nil
}

func (r *clinicRepository) Delete(ctx context.Context, id int64) (*model.Clinic, error) {
	var clinic model.Clinic

	err := r.gw.WithTx(ctx, func(tx *Gateway) error {
		if _, err := tx.Exec(ctx, `UPDATE public."user" SET clinic_id = NULL WHERE clinic_id = $1`, id); err != nil {
			return fmt.Errorf("failed to detach clinic users: %w", err)
		}
		query := `DELETE FROM public.clinic WHERE id = $1 RETURNING ` + clinicColumns
		return tx.Get(ctx, &clinic, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("clinic", id, err)
		}
		return nil, fmt.Errorf("failed to delete clinic: %w", err)
	}
	return &clinic, nil
}
