package weights

import (
	"context"
	"fmt"
	"sort"

	"github.com/2beens/pfctracker/internal/sheets"
	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/internal/tracker"

	log "github.com/sirupsen/logrus"
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

// List returns the weigh-ins sorted by day, oldest first. Rows whose date
// cannot be parsed are dropped, the chart has no place for them.
func (r *Repo) List(ctx context.Context) (_ []Sample, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.store.ReadTable(ctx, sheets.TableWeights)
	if err != nil {
		return nil, fmt.Errorf("read weights table: %w", err)
	}

	type datedSample struct {
		day    int64
		sample Sample
	}

	dated := make([]datedSample, 0, len(rows))
	for _, row := range rows {
		day, ok := tracker.ParseDay(row["date"])
		if !ok {
			log.Tracef("weights: dropping row with unparsable date [%s]", row["date"])
			continue
		}
		dated = append(dated, datedSample{
			day: day.Unix(),
			sample: Sample{
				Date:  day.Format(tracker.DayFormat),
				Kilos: row.Float("kilos"),
			},
		})
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].day < dated[j].day
	})

	samples := make([]Sample, 0, len(dated))
	for _, d := range dated {
		samples = append(samples, d.sample)
	}

	span.SetAttributes(attribute.Int("weights.count", len(samples)))

	return samples, nil
}

func (r *Repo) Add(ctx context.Context, sample Sample) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.store.AppendRow(ctx, sheets.TableWeights, []interface{}{
		sample.Date,
		sample.Kilos,
	})
}
