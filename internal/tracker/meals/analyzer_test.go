package meals

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/pfctracker/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testTargets() tracker.Targets {
	return tracker.Targets{
		Calories: 1200,
		Protein:  110,
		Fat:      45,
		Carbs:    130,
	}
}

func day(raw string) time.Time {
	d, err := time.Parse(tracker.DayFormat, raw)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAggregate(t *testing.T) {
	daily := Aggregate([]Meal{
		{Date: "2026-06-01", Name: "oats", Protein: 13.5, Fat: 7, Carbs: 68, Calories: 389},
		{Date: "2026-06-01", Name: "chicken", Protein: 31, Fat: 3.6, Calories: 165},
		{Date: "2026-06-02", Name: "eggs", Protein: 12, Fat: 10, Carbs: 1, Calories: 143},
		{Date: "not-a-date", Name: "mystery", Protein: 100, Calories: 1000},
	})

	require.Len(t, daily, 2)

	first := daily[day("2026-06-01")]
	assert.InDelta(t, 44.5, first.Protein, 0.0001)
	assert.InDelta(t, 10.6, first.Fat, 0.0001)
	assert.InDelta(t, 68, first.Carbs, 0.0001)
	assert.InDelta(t, 554, first.Calories, 0.0001)

	assert.InDelta(t, 12, daily[day("2026-06-02")].Protein, 0.0001)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]Meal{}))
}

func TestAggregate_AlternativeDateFormats(t *testing.T) {
	daily := Aggregate([]Meal{
		{Date: "01.06.2026", Calories: 100},
		{Date: "2026-06-01", Calories: 200},
	})

	// both formats resolve to the same day
	require.Len(t, daily, 1)
	assert.InDelta(t, 300, daily[day("2026-06-01")].Calories, 0.0001)
}

func TestDays_Sorted(t *testing.T) {
	daily := map[time.Time]DailyTotals{
		day("2026-06-03"): {},
		day("2026-06-01"): {},
		day("2026-06-02"): {},
	}

	days := Days(daily)
	require.Len(t, days, 3)
	assert.Equal(t, day("2026-06-01"), days[0])
	assert.Equal(t, day("2026-06-02"), days[1])
	assert.Equal(t, day("2026-06-03"), days[2])
}

func TestDailyScore(t *testing.T) {
	targets := testTargets()

	// protein over target saturates at 1, calories 1000/1200, fat 1-20/45:
	// 0.5*1 + 0.3*0.8333 + 0.2*0.5555 = 0.8611 -> 86
	score := DailyScore(DailyTotals{Protein: 120, Fat: 20, Calories: 1000}, targets)
	assert.Equal(t, 86, score)

	// nothing logged still earns the full fat term
	assert.Equal(t, 20, DailyScore(DailyTotals{}, targets))

	// everything exactly on target, fat included, loses only the fat term
	assert.Equal(t, 80, DailyScore(DailyTotals{
		Protein: 110, Fat: 45, Carbs: 130, Calories: 1200,
	}, targets))

	// perfect protein and calories with zero fat is the max
	assert.Equal(t, 100, DailyScore(DailyTotals{Protein: 110, Calories: 1200}, targets))

	// massive overshoot everywhere still stays within bounds
	score = DailyScore(DailyTotals{Protein: 500, Fat: 500, Carbs: 500, Calories: 9000}, targets)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
}

func TestDailyScore_ZeroTargets(t *testing.T) {
	// zero targets count as met, never divide by zero
	score := DailyScore(DailyTotals{Protein: 50, Calories: 400}, tracker.Targets{})
	assert.Equal(t, 80, score)
}

func TestStreak(t *testing.T) {
	targets := testTargets()
	hitProtein := func(totals DailyTotals) bool {
		return totals.Protein >= targets.Protein
	}

	today := day("2026-06-05")

	// today and yesterday hit, the day before missed: streak of 2
	daily := map[time.Time]DailyTotals{
		day("2026-06-05"): {Protein: 115},
		day("2026-06-04"): {Protein: 112},
		day("2026-06-03"): {Protein: 80},
		day("2026-06-02"): {Protein: 120},
	}
	assert.Equal(t, 2, Streak(daily, today, hitProtein))

	// missing day breaks the chain, no grace window
	delete(daily, day("2026-06-04"))
	assert.Equal(t, 1, Streak(daily, today, hitProtein))

	// today itself failing means zero
	daily[day("2026-06-05")] = DailyTotals{Protein: 30}
	assert.Equal(t, 0, Streak(daily, today, hitProtein))

	// no data at all
	assert.Equal(t, 0, Streak(nil, today, hitProtein))
}

func TestBadges(t *testing.T) {
	targets := testTargets()

	// fresh log: nothing unlocked
	assert.Empty(t, Badges(nil, false, 0, targets))

	// any history unlocks first-log
	assert.Equal(t, []BadgeID{BadgeFirstLog}, Badges(nil, true, 0, targets))

	// protein target hit and calories under budget, three day streak
	badges := Badges(&DailyTotals{Protein: 120, Calories: 1000}, true, 3, targets)
	assert.Equal(t, []BadgeID{BadgeFirstLog, BadgeProteinBoss, BadgePerfectDay, BadgeStreak3}, badges)

	// protein hit but calories blown: no perfect day
	badges = Badges(&DailyTotals{Protein: 120, Calories: 2000}, true, 1, targets)
	assert.Contains(t, badges, BadgeProteinBoss)
	assert.NotContains(t, badges, BadgePerfectDay)

	// long streak fires every streak badge
	badges = Badges(nil, true, 14, targets)
	assert.Contains(t, badges, BadgeStreak3)
	assert.Contains(t, badges, BadgeStreak7)
	assert.Contains(t, badges, BadgeStreak14)
}

type listRepoStub struct {
	meals []Meal
	err   error
}

func (s *listRepoStub) List(_ context.Context) ([]Meal, error) {
	return s.meals, s.err
}

func TestAnalyzer_TodaySummary(t *testing.T) {
	now := time.Date(2026, 6, 5, 14, 30, 0, 0, time.UTC)
	repo := &listRepoStub{meals: []Meal{
		{Date: "2026-06-05", Name: "oats", Protein: 60, Fat: 10, Carbs: 68, Calories: 500},
		{Date: "2026-06-05", Name: "chicken", Protein: 60, Fat: 10, Calories: 500},
		{Date: "2026-06-04", Name: "eggs", Protein: 115, Fat: 20, Calories: 800},
		{Date: "2026-06-02", Name: "fish", Protein: 115, Fat: 5, Calories: 600},
	}}

	summary := NewAnalyzer(repo, testTargets()).TodaySummary(context.Background(), now)

	assert.Equal(t, "2026-06-05", summary.Date)
	assert.Equal(t, 2, summary.MealsCount)
	assert.InDelta(t, 120, summary.Totals.Protein, 0.0001)
	assert.InDelta(t, 1000, summary.Totals.Calories, 0.0001)
	assert.Equal(t, 86, summary.Score)

	// 2026-06-03 has no log, so the streak stops at two days
	assert.Equal(t, 2, summary.ProteinStreak)

	assert.InDelta(t, 200, summary.Remaining.Calories, 0.0001)
	assert.InDelta(t, 0, summary.Remaining.Protein, 0.0001)
	assert.InDelta(t, 25, summary.Remaining.Fat, 0.0001)
	assert.InDelta(t, 62, summary.Remaining.Carbs, 0.0001)

	assert.Contains(t, summary.Badges, BadgeFirstLog)
	assert.Contains(t, summary.Badges, BadgeProteinBoss)
	assert.Contains(t, summary.Badges, BadgePerfectDay)
	assert.NotContains(t, summary.Badges, BadgeStreak3)
}

func TestAnalyzer_TodaySummary_NothingToday(t *testing.T) {
	now := time.Date(2026, 6, 5, 9, 0, 0, 0, time.UTC)
	repo := &listRepoStub{meals: []Meal{
		{Date: "2026-05-01", Name: "old meal", Protein: 50, Calories: 400},
	}}

	summary := NewAnalyzer(repo, testTargets()).TodaySummary(context.Background(), now)

	assert.Equal(t, 0, summary.MealsCount)
	assert.Equal(t, 0, summary.Score)
	assert.Equal(t, 0, summary.ProteinStreak)
	assert.InDelta(t, 1200, summary.Remaining.Calories, 0.0001)
	assert.Equal(t, []BadgeID{BadgeFirstLog}, summary.Badges)
}

func TestAnalyzer_TodaySummary_ReadError(t *testing.T) {
	now := time.Date(2026, 6, 5, 9, 0, 0, 0, time.UTC)
	repo := &listRepoStub{err: assert.AnError}

	// a failed read renders as an empty log, not an error
	summary := NewAnalyzer(repo, testTargets()).TodaySummary(context.Background(), now)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.MealsCount)
	assert.Empty(t, summary.Badges)
}

func TestAnalyzer_WeekSummary(t *testing.T) {
	// friday; the week started monday 2026-06-01
	now := time.Date(2026, 6, 5, 12, 0, 0, 0, time.UTC)
	repo := &listRepoStub{meals: []Meal{
		{Date: "2026-05-31", Calories: 999}, // previous week, sunday
		{Date: "2026-06-01", Protein: 100, Calories: 1100},
		{Date: "2026-06-03", Protein: 80, Calories: 900},
		{Date: "2026-06-05", Protein: 120, Calories: 1000},
	}}

	summary := NewAnalyzer(repo, testTargets()).WeekSummary(context.Background(), now)

	assert.Equal(t, "week", summary.Period)
	assert.Equal(t, 3, summary.DaysLogged)
	assert.InDelta(t, 3000, summary.Total.Calories, 0.0001)
	assert.InDelta(t, 1000, summary.AveragePerDay.Calories, 0.0001)
	assert.InDelta(t, 100, summary.AveragePerDay.Protein, 0.0001)

	require.Len(t, summary.CaloriesChart, 3)
	assert.Equal(t, "2026-06-01", summary.CaloriesChart[0].Label)
	assert.Equal(t, "2026-06-05", summary.CaloriesChart[2].Label)
}

func TestAnalyzer_MonthSummary(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &listRepoStub{meals: []Meal{
		{Date: "2026-05-30", Calories: 700},
		{Date: "2026-06-01", Calories: 1100},
		{Date: "2026-06-10", Calories: 900},
	}}

	summary := NewAnalyzer(repo, testTargets()).MonthSummary(context.Background(), now)

	assert.Equal(t, "month", summary.Period)
	assert.Equal(t, 2, summary.DaysLogged)
	assert.InDelta(t, 2000, summary.Total.Calories, 0.0001)
}

func TestAnalyzer_YearlySummary(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &listRepoStub{meals: []Meal{
		{Date: "2025-12-31", Calories: 1500}, // previous year
		{Date: "2026-01-10", Calories: 1000},
		{Date: "2026-01-11", Calories: 1200},
		{Date: "2026-06-01", Calories: 900},
	}}

	summary := NewAnalyzer(repo, testTargets()).YearlySummary(context.Background(), now)

	assert.Equal(t, 2026, summary.Year)
	assert.InDelta(t, 3100, summary.Total.Calories, 0.0001)

	require.Len(t, summary.MonthlyTotals, 2)
	assert.Equal(t, "2026-01", summary.MonthlyTotals[0].Label)
	assert.InDelta(t, 2200, summary.MonthlyTotals[0].Calories, 0.0001)
	assert.Equal(t, "2026-06", summary.MonthlyTotals[1].Label)
	assert.InDelta(t, 900, summary.MonthlyTotals[1].Calories, 0.0001)
}

func TestCaloriesFromMacros(t *testing.T) {
	assert.InDelta(t, 0, CaloriesFromMacros(0, 0, 0), 0.0001)
	assert.InDelta(t, 4, CaloriesFromMacros(1, 0, 0), 0.0001)
	assert.InDelta(t, 9, CaloriesFromMacros(0, 1, 0), 0.0001)
	assert.InDelta(t, 4, CaloriesFromMacros(0, 0, 1), 0.0001)
	assert.InDelta(t, 1540, CaloriesFromMacros(110, 60, 125), 0.0001)
}
