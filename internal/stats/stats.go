// Package stats aggregates completion history into the numbers shown by the
// stats command: streaks, completion rates and a weekly breakdown.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

// Summary is the aggregate view of one challenge.
type Summary struct {
	ChallengeID     string     `json:"challenge_id"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	DayNumber       int        `json:"day_number"`
	ProgressPercent int        `json:"progress_percent"`
	DaysRemaining   int        `json:"days_remaining"`
	DaysTracked     int        `json:"days_tracked"`
	PerfectDays     int        `json:"perfect_days"`
	CompletionRate  int        `json:"completion_rate"`
	CurrentStreak   int        `json:"current_streak"`
	LongestStreak   int        `json:"longest_streak"`
	Weeks           []Week     `json:"weeks"`
	Tasks           []TaskRate `json:"tasks"`
}

// Week aggregates seven consecutive challenge days. The last week of a
// challenge is shorter.
type Week struct {
	Number      int    `json:"number"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Days        int    `json:"days"`
	PerfectDays int    `json:"perfect_days"`
	Completed   int    `json:"completed"`
	Possible    int    `json:"possible"`
	Rate        int    `json:"rate"`
}

// TaskRate is how often one task was completed over the tracked days.
type TaskRate struct {
	TaskID    string `json:"task_id"`
	TaskText  string `json:"task_text"`
	Completed int    `json:"completed"`
	Days      int    `json:"days"`
	Rate      int    `json:"rate"`
}

// Dates returns the challenge dates from the start through today, capped at
// the last challenge day. It returns nil before the challenge starts.
func Dates(challenge models.Challenge, now time.Time) ([]string, error) {
	end := utils.Today(now)
	last, err := utils.ChallengeEndDate(challenge.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge start date: %w", err)
	}
	if end > last {
		end = last
	}
	return utils.DatesBetween(challenge.StartDate, end)
}

// Compute builds the summary for challenge. history maps dates to their
// completions; missing dates count as days with nothing completed. Progress
// is judged against the current task list.
func Compute(challenge models.Challenge, tasks []models.CustomTask, history map[string]models.DayCompletions, now time.Time) (Summary, error) {
	dates, err := Dates(challenge, now)
	if err != nil {
		return Summary{}, err
	}
	day, _ := utils.CurrentDay(challenge.StartDate, now)

	s := Summary{
		ChallengeID:     challenge.ID,
		StartDate:       challenge.StartDate,
		EndDate:         challenge.EndDate,
		DayNumber:       day,
		ProgressPercent: utils.ProgressPercentage(day),
		DaysRemaining:   utils.DaysRemaining(day),
		DaysTracked:     len(dates),
		Weeks:           []Week{},
		Tasks:           make([]TaskRate, len(tasks)),
	}
	if s.EndDate == "" {
		s.EndDate, _ = utils.ChallengeEndDate(challenge.StartDate)
	}
	for i, t := range tasks {
		s.Tasks[i] = TaskRate{TaskID: t.ID, TaskText: t.TaskText, Days: len(dates)}
	}

	perfect := make([]bool, len(dates))
	completed, possible := 0, 0
	for i, date := range dates {
		dc := history[date]
		dc.Date = date
		dc.Recompute(tasks, i+1)
		p := dc.DailyProgress

		perfect[i] = p.AllCompleted
		if p.AllCompleted {
			s.PerfectDays++
		}
		completed += p.CompletedCount
		possible += p.TotalTasks
		for j, t := range tasks {
			if dc.IsCompleted(t.ID) {
				s.Tasks[j].Completed++
			}
		}

		weekIdx := i / 7
		if weekIdx == len(s.Weeks) {
			s.Weeks = append(s.Weeks, Week{Number: weekIdx + 1, StartDate: date})
		}
		w := &s.Weeks[weekIdx]
		w.EndDate = date
		w.Days++
		w.Completed += p.CompletedCount
		w.Possible += p.TotalTasks
		if p.AllCompleted {
			w.PerfectDays++
		}
	}

	s.CompletionRate = Percent(completed, possible)
	for i := range s.Weeks {
		s.Weeks[i].Rate = Percent(s.Weeks[i].Completed, s.Weeks[i].Possible)
	}
	for i := range s.Tasks {
		s.Tasks[i].Rate = Percent(s.Tasks[i].Completed, s.Tasks[i].Days)
	}
	s.CurrentStreak, s.LongestStreak = Streaks(perfect)
	return s, nil
}

// Streaks scans perfect-day flags, oldest first, with the last entry being
// today. The current streak ends today, or yesterday while today is still
// incomplete.
func Streaks(perfect []bool) (current, longest int) {
	run := 0
	for _, ok := range perfect {
		if ok {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	end := len(perfect) - 1
	if end >= 0 && !perfect[end] {
		end--
	}
	for i := end; i >= 0 && perfect[i]; i-- {
		current++
	}
	return current, longest
}

// Percent returns part/whole as a rounded percentage, 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Finished reports whether every challenge day has been tracked.
func (s Summary) Finished() bool {
	return s.DaysTracked >= constants.ChallengeDays
}
