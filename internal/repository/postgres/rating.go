package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
)

type ratingRepository struct {
	gw *Gateway
}

func NewRatingRepository(gw *Gateway) repository.RatingRepository {
	return &ratingRepository{gw: gw}
}

// Upsert stores the patient's rating, replacing an earlier one for the same
// dentist.
func (r *ratingRepository) Upsert(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO public.patient_on_dentist (patient_id, dentist_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id, dentist_id) DO UPDATE SET rating = EXCLUDED.rating
		RETURNING patient_id, dentist_id, rating`
	if err := r.gw.Get(ctx, rating, query, rating.PatientID, rating.DentistID, rating.Rating); err != nil {
		return fmt.Errorf("failed to store rating: %w", err)
	}
	return nil
}
