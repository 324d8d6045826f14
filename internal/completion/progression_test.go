package completion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		in             Input
		wantPercentage int
		wantPassed     bool
	}{
		"half right at the passing line": {
			in:             Input{CorrectCount: 1, TotalQuestions: 2, PassingScore: 50},
			wantPercentage: 50,
			wantPassed:     true,
		},
		"rounds to nearest percent": {
			in:             Input{CorrectCount: 2, TotalQuestions: 3, PassingScore: 70},
			wantPercentage: 67,
			wantPassed:     false,
		},
		"no questions is zero percent": {
			in:             Input{PassingScore: 1},
			wantPercentage: 0,
			wantPassed:     false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			tc.in.StartedAt = start
			tc.in.CompletedAt = start.Add(42 * time.Second)
			res := Evaluate(tc.in)
			assert.Equal(t, tc.wantPercentage, res.Percentage)
			assert.Equal(t, tc.wantPassed, res.Passed)
			assert.Equal(t, 42, res.ElapsedSeconds)
		})
	}
}

func TestAdvanceFirstWin(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	res := Result{Score: 100, Percentage: 100, TotalQuestions: 10, Passed: true, CompletedAt: now}

	next, unlocked := Advance(Progress{Level: 1}, nil, res)

	assert.Equal(t, 1, next.GamesPlayed)
	assert.Equal(t, 1, next.GamesWon)
	assert.Equal(t, 10, next.Experience)
	assert.EqualValues(t, 100, next.TotalPoints)
	assert.Equal(t, 1, next.Level)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, now, next.LastPlayedAt)
	assert.Equal(t, []string{AchievementFirstGame, AchievementFirstWin, AchievementPerfectScore}, unlocked)
}

func TestAdvanceFailedGameOnlyCountsPlayed(t *testing.T) {
	res := Result{Score: 5, Percentage: 20, TotalQuestions: 5, CompletedAt: time.Now()}

	next, unlocked := Advance(Progress{Level: 1, GamesPlayed: 3}, []string{AchievementFirstGame}, res)

	assert.Equal(t, 4, next.GamesPlayed)
	assert.Equal(t, 0, next.GamesWon)
	assert.Equal(t, 0, next.Experience)
	assert.Empty(t, unlocked)
}

func TestAdvanceLevelsAndMilestones(t *testing.T) {
	cur := Progress{GamesPlayed: 20, GamesWon: 9, Experience: 3990, Level: 4}
	res := Result{Score: 500, Percentage: 80, TotalQuestions: 5, Passed: true, CompletedAt: time.Now()}

	next, unlocked := Advance(cur, []string{AchievementFirstGame, AchievementFirstWin}, res)

	assert.Equal(t, 4040, next.Experience)
	assert.Equal(t, 5, next.Level)
	assert.Equal(t, []string{AchievementWins10, AchievementLevel5}, unlocked)
}

func TestAdvanceStreak(t *testing.T) {
	day := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	res := func(at time.Time) Result { return Result{CompletedAt: at} }

	tests := map[string]struct {
		last       time.Time
		current    int
		playedAt   time.Time
		wantStreak int
	}{
		"first game starts a streak":  {playedAt: day, wantStreak: 1},
		"same day keeps the streak":   {last: day.Add(-time.Hour), current: 3, playedAt: day, wantStreak: 3},
		"next calendar day extends":   {last: day, current: 3, playedAt: day.Add(time.Hour), wantStreak: 4},
		"a missed day resets":         {last: day, current: 3, playedAt: day.Add(49 * time.Hour), wantStreak: 1},
		"clock skew backwards resets": {last: day, current: 3, playedAt: day.Add(-48 * time.Hour), wantStreak: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cur := Progress{Level: 1, LastPlayedAt: tc.last, CurrentStreak: tc.current, LongestStreak: tc.current}
			next, _ := Advance(cur, nil, res(tc.playedAt))
			assert.Equal(t, tc.wantStreak, next.CurrentStreak)
			assert.GreaterOrEqual(t, next.LongestStreak, next.CurrentStreak)
		})
	}
}
