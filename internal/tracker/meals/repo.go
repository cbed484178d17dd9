package meals

import (
	"context"
	"fmt"

	"github.com/2beens/pfctracker/internal/sheets"
	"github.com/2beens/pfctracker/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	store sheets.Store
}

func NewRepo(store sheets.Store) *Repo {
	return &Repo{
		store: store,
	}
}

func (r *Repo) List(ctx context.Context) (_ []Meal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.store.ReadTable(ctx, sheets.TableMeals)
	if err != nil {
		return nil, fmt.Errorf("read meals table: %w", err)
	}

	mealsList := make([]Meal, 0, len(rows))
	for _, row := range rows {
		name := row["meal_name"]
		if name == "" {
			// older sheet variants used food_name for smart entries
			name = row["food_name"]
		}
		mealsList = append(mealsList, Meal{
			Date:      row["date"],
			Timestamp: row["timestamp"],
			Name:      name,
			Protein:   row.Float("protein"),
			Fat:       row.Float("fat"),
			Carbs:     row.Float("carbs"),
			Calories:  row.Float("calories"),
			Notes:     row["notes"],
			ImageURL:  row["image_url"],
		})
	}

	span.SetAttributes(attribute.Int("meals.count", len(mealsList)))

	return mealsList, nil
}

// Add appends the meal to the bottom of the meals table.
// Column order there: date, timestamp, meal_name, protein, fat, carbs,
// calories, notes, image_url.
func (r *Repo) Add(ctx context.Context, meal Meal) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.store.AppendRow(ctx, sheets.TableMeals, []interface{}{
		meal.Date,
		meal.Timestamp,
		meal.Name,
		meal.Protein,
		meal.Fat,
		meal.Carbs,
		meal.Calories,
		meal.Notes,
		meal.ImageURL,
	})
}
