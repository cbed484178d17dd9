package food

import (
	"context"
	"fmt"

	"github.com/2beens/pfctracker/internal/sheets"
	"github.com/2beens/pfctracker/internal/telemetry/tracing"
)

type Repo struct {
	store sheets.Store
}

func NewRepo(store sheets.Store) *Repo {
	return &Repo{
		store: store,
	}
}

// GetAll returns all food profiles of the reference table. A present but
// misnamed food_name column is fatal for the whole view.
func (r *Repo) GetAll(ctx context.Context) (_ []Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.food.getAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.store.ReadTable(ctx, sheets.TableFoodDatabase)
	if err != nil {
		return nil, fmt.Errorf("read food database: %w", err)
	}

	profiles := make([]Profile, 0, len(rows))
	for _, row := range rows {
		name, ok := row["food_name"]
		if !ok {
			return nil, fmt.Errorf("%w: food_name", sheets.ErrMissingColumn)
		}
		if name == "" {
			continue
		}
		profiles = append(profiles, Profile{
			Name:            name,
			ProteinPer100g:  row.Float("protein_per_100g"),
			FatPer100g:      row.Float("fat_per_100g"),
			CarbsPer100g:    row.Float("carbs_per_100g"),
			CaloriesPer100g: row.Float("calories_per_100g"),
		})
	}

	return profiles, nil
}

func (r *Repo) GetByName(ctx context.Context, name string) (*Profile, error) {
	profiles, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFoodNotFound, name)
}
