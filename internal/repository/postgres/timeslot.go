package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
)

const timeslotColumns = `id, start_time, end_time, dentist_id`

type timeslotRepository struct {
	gw *Gateway
}

func NewTimeslotRepository(gw *Gateway) repository.TimeslotRepository {
	return &timeslotRepository{gw: gw}
}

func (r *timeslotRepository) Get(ctx context.Context, id int64) (*model.Timeslot, error) {
	var slot model.Timeslot
	query := `SELECT ` + timeslotColumns + ` FROM public.timeslot WHERE id = $1`
	if err := r.gw.Get(ctx, &slot, query, id); err != nil {
		return nil, notFound("timeslot", id, err)
	}
	return &slot, nil
}

func (r *timeslotRepository) Create(ctx context.Context, slot *model.Timeslot) error {
	query := `
		INSERT INTO public.timeslot (start_time, end_time, dentist_id)
		VALUES ($1, $2, $3)
		RETURNING ` + timeslotColumns
	if err := r.gw.Get(ctx, slot, query, slot.StartTime, slot.EndTime, slot.DentistID); err != nil {
		return fmt.Errorf("failed to create timeslot: %w", err)
	}
	return nil
}

func (r *timeslotRepository) Delete(ctx context.Context, id int64) (*model.Timeslot, error) {
	var slot model.Timeslot
	query := `DELETE FROM public.timeslot WHERE id = $1 RETURNING ` + timeslotColumns
	if err := r.gw.Get(ctx, &slot, query, id); err != nil {
		return nil, notFound("timeslot", id, err)
	}
	return &slot, nil
}
