package meals

import (
	"context"
	"sort"
	"time"

	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/internal/tracker"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// DailyTotals are the macro sums of all meals logged on one calendar day.
// Derived on demand, never persisted.
type DailyTotals struct {
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Calories float64 `json:"calories"`
}

type BadgeID string

const (
	BadgeFirstLog    BadgeID = "first-log"
	BadgeProteinBoss BadgeID = "protein-boss"
	BadgePerfectDay  BadgeID = "perfect-day"
	BadgeStreak3     BadgeID = "streak-3"
	BadgeStreak7     BadgeID = "streak-7"
	BadgeStreak14    BadgeID = "streak-14"
)

// Aggregate groups the given meals by calendar day and sums their macros.
// Meals with unparsable dates are dropped silently. Empty input yields an
// empty map.
func Aggregate(mealsList []Meal) map[time.Time]DailyTotals {
	daily := make(map[time.Time]DailyTotals)
	for _, meal := range mealsList {
		day, ok := tracker.ParseDay(meal.Date)
		if !ok {
			log.Tracef("aggregate: dropping meal [%s] with unparsable date [%s]", meal.Name, meal.Date)
			continue
		}
		totals := daily[day]
		totals.Protein += meal.Protein
		totals.Fat += meal.Fat
		totals.Carbs += meal.Carbs
		totals.Calories += meal.Calories
		daily[day] = totals
	}
	return daily
}

// Days returns the days present in the aggregation, ascending
func Days(daily map[time.Time]DailyTotals) []time.Time {
	days := make([]time.Time, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}

// Streak walks backward one calendar day at a time, starting at today, and
// counts the consecutive days for which a row exists and the predicate
// holds. A missing day or a failed predicate breaks the streak immediately;
// there is no grace window. Returns 0 when today itself fails.
func Streak(daily map[time.Time]DailyTotals, today time.Time, predicate func(DailyTotals) bool) int {
	count := 0
	for day := tracker.Day(today); ; day = day.AddDate(0, 0, -1) {
		totals, ok := daily[day]
		if !ok || !predicate(totals) {
			return count
		}
		count++
	}
}

// Badges evaluates the badge rule table. Rules are independent, every
// matching one fires; unlocking is stateless and recomputed on each view.
func Badges(todayTotals *DailyTotals, hasHistory bool, proteinStreak int, targets tracker.Targets) []BadgeID {
	var badges []BadgeID

	if hasHistory {
		badges = append(badges, BadgeFirstLog)
	}

	if todayTotals != nil {
		if todayTotals.Protein >= targets.Protein {
			badges = append(badges, BadgeProteinBoss)
		}
		if todayTotals.Protein >= targets.Protein && todayTotals.Calories <= targets.Calories {
			badges = append(badges, BadgePerfectDay)
		}
	}

	if proteinStreak >= 3 {
		badges = append(badges, BadgeStreak3)
	}
	if proteinStreak >= 7 {
		badges = append(badges, BadgeStreak7)
	}
	if proteinStreak >= 14 {
		badges = append(badges, BadgeStreak14)
	}

	return badges
}

// DailyScore is the composite adherence score in [0, 100]:
// half of it protein, 0.3 calories, 0.2 for staying under the fat target.
// Every term is capped, so overshooting a target saturates instead of
// pushing the score down ("lean and full" bias, kept on purpose).
func DailyScore(totals DailyTotals, targets tracker.Targets) int {
	proteinScore := tracker.Ratio(totals.Protein, targets.Protein)
	calorieScore := tracker.Ratio(totals.Calories, targets.Calories)
	fatScore := 1 - tracker.Ratio(totals.Fat, targets.Fat)

	return int((proteinScore*0.5 + calorieScore*0.3 + fatScore*0.2) * 100)
}

// Analyzer computes the derived views over the meals log. It holds no
// state of its own; every call recomputes from a fresh read of the log.
type Analyzer struct {
	repo    mealsRepo
	targets tracker.Targets
}

type mealsRepo interface {
	List(ctx context.Context) ([]Meal, error)
}

func NewAnalyzer(repo mealsRepo, targets tracker.Targets) *Analyzer {
	return &Analyzer{
		repo:    repo,
		targets: targets,
	}
}

// listOrEmpty treats a failed read identically to an empty table: the
// dashboard should render a "no data yet" state, not break, when the
// spreadsheet API has a moment
func (a *Analyzer) listOrEmpty(ctx context.Context) []Meal {
	mealsList, err := a.repo.List(ctx)
	if err != nil {
		log.Errorf("analyzer: failed to list meals, treating as empty log: %s", err)
		return nil
	}
	return mealsList
}

type Remaining struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

type TodaySummary struct {
	Date          string      `json:"date"`
	MealsCount    int         `json:"mealsCount"`
	Totals        DailyTotals `json:"totals"`
	Remaining     Remaining   `json:"remaining"`
	Score         int         `json:"score"`
	ProteinStreak int         `json:"proteinStreak"`
	Badges        []BadgeID   `json:"badges"`
}

func (a *Analyzer) TodaySummary(ctx context.Context, now time.Time) *TodaySummary {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.meals.todaySummary")
	defer span.End()

	mealsList := a.listOrEmpty(ctx)
	daily := Aggregate(mealsList)
	today := tracker.Day(now)

	var todayTotals *DailyTotals
	if totals, ok := daily[today]; ok {
		todayTotals = &totals
	}

	proteinStreak := Streak(daily, today, func(totals DailyTotals) bool {
		return totals.Protein >= a.targets.Protein
	})

	summary := &TodaySummary{
		Date:          today.Format(tracker.DayFormat),
		ProteinStreak: proteinStreak,
		Badges:        Badges(todayTotals, len(daily) > 0, proteinStreak, a.targets),
	}

	if todayTotals != nil {
		summary.Totals = *todayTotals
		summary.Score = DailyScore(*todayTotals, a.targets)
		mealsToday := 0
		for _, meal := range mealsList {
			if day, ok := tracker.ParseDay(meal.Date); ok && day.Equal(today) {
				mealsToday++
			}
		}
		summary.MealsCount = mealsToday
	}

	summary.Remaining = Remaining{
		Calories: remaining(a.targets.Calories, summary.Totals.Calories),
		Protein:  remaining(a.targets.Protein, summary.Totals.Protein),
		Fat:      remaining(a.targets.Fat, summary.Totals.Fat),
		Carbs:    remaining(a.targets.Carbs, summary.Totals.Carbs),
	}

	span.SetAttributes(attribute.Int("score", summary.Score))

	return summary
}

func remaining(target, current float64) float64 {
	if left := target - current; left > 0 {
		return left
	}
	return 0
}

// SeriesPoint feeds the calorie charts: one point per day (or per month,
// for the yearly view)
type SeriesPoint struct {
	Label    string  `json:"label"`
	Calories float64 `json:"calories"`
}

type PeriodSummary struct {
	Period        string        `json:"period"`
	DaysLogged    int           `json:"daysLogged"`
	Total         DailyTotals   `json:"total"`
	AveragePerDay DailyTotals   `json:"averagePerDay"`
	CaloriesChart []SeriesPoint `json:"caloriesChart"`
}

// WeekSummary covers the current week, Monday through today
func (a *Analyzer) WeekSummary(ctx context.Context, now time.Time) *PeriodSummary {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.meals.weekSummary")
	defer span.End()

	weekStart := tracker.WeekStart(now)
	return a.periodSummary(ctx, "week", func(day time.Time) bool {
		return !day.Before(weekStart) && !day.After(tracker.Day(now))
	})
}

// MonthSummary covers the current calendar month
func (a *Analyzer) MonthSummary(ctx context.Context, now time.Time) *PeriodSummary {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.meals.monthSummary")
	defer span.End()

	return a.periodSummary(ctx, "month", func(day time.Time) bool {
		return day.Year() == now.Year() && day.Month() == now.Month()
	})
}

func (a *Analyzer) periodSummary(ctx context.Context, period string, include func(time.Time) bool) *PeriodSummary {
	daily := Aggregate(a.listOrEmpty(ctx))

	summary := &PeriodSummary{
		Period: period,
	}

	for _, day := range Days(daily) {
		if !include(day) {
			continue
		}
		totals := daily[day]
		summary.DaysLogged++
		summary.Total.Protein += totals.Protein
		summary.Total.Fat += totals.Fat
		summary.Total.Carbs += totals.Carbs
		summary.Total.Calories += totals.Calories
		summary.CaloriesChart = append(summary.CaloriesChart, SeriesPoint{
			Label:    day.Format(tracker.DayFormat),
			Calories: totals.Calories,
		})
	}

	if summary.DaysLogged > 0 {
		n := float64(summary.DaysLogged)
		summary.AveragePerDay = DailyTotals{
			Protein:  summary.Total.Protein / n,
			Fat:      summary.Total.Fat / n,
			Carbs:    summary.Total.Carbs / n,
			Calories: summary.Total.Calories / n,
		}
	}

	return summary
}

type YearSummary struct {
	Year          int           `json:"year"`
	Total         DailyTotals   `json:"total"`
	MonthlyTotals []SeriesPoint `json:"monthlyTotals"`
}

// YearlySummary groups the current year's days by month
func (a *Analyzer) YearlySummary(ctx context.Context, now time.Time) *YearSummary {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.meals.yearlySummary")
	defer span.End()

	daily := Aggregate(a.listOrEmpty(ctx))

	summary := &YearSummary{
		Year: now.Year(),
	}

	monthly := make(map[time.Month]float64)
	for day, totals := range daily {
		if day.Year() != now.Year() {
			continue
		}
		summary.Total.Protein += totals.Protein
		summary.Total.Fat += totals.Fat
		summary.Total.Carbs += totals.Carbs
		summary.Total.Calories += totals.Calories
		monthly[day.Month()] += totals.Calories
	}

	for month := time.January; month <= time.December; month++ {
		calories, ok := monthly[month]
		if !ok {
			continue
		}
		summary.MonthlyTotals = append(summary.MonthlyTotals, SeriesPoint{
			Label:    time.Date(now.Year(), month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			Calories: calories,
		})
	}

	return summary
}
