package completion

import (
	"math"
	"time"
)

const experiencePerLevel = 1000

// Evaluate derives the persisted result from a finished session.
func Evaluate(in Input) Result {
	percentage := 0
	if in.TotalQuestions > 0 {
		percentage = int(math.Round(float64(in.CorrectCount) / float64(in.TotalQuestions) * 100))
	}
	elapsed := 0
	if !in.StartedAt.IsZero() && in.CompletedAt.After(in.StartedAt) {
		elapsed = int(in.CompletedAt.Sub(in.StartedAt).Seconds())
	}
	return Result{
		SessionID:      in.SessionID,
		UserID:         in.UserID,
		QuizID:         in.QuizID,
		Score:          in.Score,
		CorrectCount:   in.CorrectCount,
		TotalQuestions: in.TotalQuestions,
		Percentage:     percentage,
		Passed:         percentage >= in.PassingScore,
		Answers:        in.Answers,
		ElapsedSeconds: elapsed,
		CompletedAt:    in.CompletedAt,
	}
}

// Advance applies one finished game to the player's progression and returns
// the achievements it newly unlocks, skipping codes already owned.
func Advance(cur Progress, owned []string, res Result) (Progress, []string) {
	next := cur
	next.GamesPlayed++
	if res.Passed {
		next.GamesWon++
		next.Experience += int(math.Round(float64(res.Score) * 0.1))
		next.TotalPoints += int64(res.Score)
	}
	next.Level = next.Experience/experiencePerLevel + 1

	playedAt := res.CompletedAt
	switch days := dayGap(cur.LastPlayedAt, playedAt); {
	case cur.LastPlayedAt.IsZero(), days > 1, days < 0:
		next.CurrentStreak = 1
	case days == 1:
		next.CurrentStreak = cur.CurrentStreak + 1
	default:
		if next.CurrentStreak == 0 {
			next.CurrentStreak = 1
		}
	}
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastPlayedAt = playedAt

	have := make(map[string]bool, len(owned))
	for _, code := range owned {
		have[code] = true
	}
	var unlocked []string
	award := func(code string, earned bool) {
		if earned && !have[code] {
			unlocked = append(unlocked, code)
			have[code] = true
		}
	}
	award(AchievementFirstGame, next.GamesPlayed >= 1)
	award(AchievementFirstWin, next.GamesWon >= 1)
	award(AchievementWins10, next.GamesWon >= 10)
	award(AchievementWins50, next.GamesWon >= 50)
	award(AchievementPerfectScore, res.TotalQuestions > 0 && res.Percentage == 100)
	award(AchievementLevel5, next.Level >= 5)
	award(AchievementLevel10, next.Level >= 10)

	return next, unlocked
}

// dayGap counts calendar days (UTC) between two instants.
func dayGap(from, to time.Time) int {
	if from.IsZero() {
		return 0
	}
	f := from.UTC()
	t := to.UTC()
	fd := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(td.Sub(fd).Hours() / 24)
}
