package workouts

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

func (r *Repo) List(ctx context.Context) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.store.ReadTable(ctx, sheets.TableWorkouts)
	if err != nil {
		return nil, fmt.Errorf("read workouts table: %w", err)
	}

	workoutsList := make([]Workout, 0, len(rows))
	for _, row := range rows {
		workoutsList = append(workoutsList, Workout{
			Date:        row["date"],
			Name:        row["workout_name"],
			YoutubeLink: row["youtube_link"],
			Notes:       row["notes"],
		})
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workoutsList)))

	return workoutsList, nil
}

func (r *Repo) Add(ctx context.Context, workout Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.store.AppendRow(ctx, sheets.TableWorkouts, []interface{}{
		workout.Date,
		workout.Name,
		workout.YoutubeLink,
		workout.Notes,
	})
}
