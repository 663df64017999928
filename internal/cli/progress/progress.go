package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/stats"
	"github.com/julianstephens/hard75/internal/utils"
)

type TodayCmd struct {
	Date string `help:"Show another day (YYYY-MM-DD)."`
}

func (cmd *TodayCmd) Run(ctx *cli.Context) error {
	date, err := dateOrToday(ctx, cmd.Date)
	if err != nil {
		return err
	}
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	tasks := f.GetTasks(bg)
	if !tasks.OK() {
		return tasks.Err
	}
	day := f.GetTaskCompletions(bg, date)
	if !day.OK() {
		if !errors.Is(day.Err, apperrors.ErrNoCachedData) {
			return day.Err
		}
		day.Data = models.DayCompletions{Date: date}
		day.Data.Recompute(tasks.Data, 0)
	}

	p := day.Data.DailyProgress
	title := date
	if p.DayNumber > 0 {
		title = fmt.Sprintf("Day %d of %d · %s", p.DayNumber, constants.ChallengeDays, date)
	}
	ctx.Println(cli.HeaderStyle.Render(title))
	for i, t := range tasks.Data {
		mark := " "
		if day.Data.IsCompleted(t.ID) {
			mark = "x"
		}
		ctx.Printf("%2d. [%s] %s\n", i+1, mark, t.TaskText)
	}
	ctx.Println()
	ctx.Printf("%d/%d complete\n", p.CompletedCount, p.TotalTasks)
	if p.AllCompleted {
		ctx.Success("All done for the day!")
	}
	ctx.CacheNotice(tasks.FromCache || day.FromCache)
	return nil
}

type CompleteCmd struct {
	Tasks []string `arg:"" help:"Task numbers, ids or id prefixes."`
	Undo  bool     `help:"Mark the tasks incomplete instead."`
	Date  string   `help:"Day to update (YYYY-MM-DD). Defaults to today."`
}

func (cmd *CompleteCmd) Run(ctx *cli.Context) error {
	date, err := dateOrToday(ctx, cmd.Date)
	if err != nil {
		return err
	}
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	tasks := f.GetTasks(bg)
	if !tasks.OK() {
		return tasks.Err
	}

	var last models.DayCompletions
	for _, ref := range cmd.Tasks {
		task, err := cli.ResolveTask(tasks.Data, ref)
		if err != nil {
			return err
		}
		res := f.CompleteTask(bg, models.CompleteTaskRequest{TaskID: task.ID, Completed: !cmd.Undo, Date: date})
		verb := "Completed"
		if cmd.Undo {
			verb = "Unmarked"
		}
		if err := cli.Report(ctx, res, fmt.Sprintf("%s: %s", verb, task.TaskText)); err != nil {
			return err
		}
		last = res.Data
	}

	p := last.DailyProgress
	ctx.Printf("%d/%d complete for %s\n", p.CompletedCount, p.TotalTasks, date)
	if p.AllCompleted {
		ctx.Success("All done for the day!")
	}
	return nil
}

type StatsCmd struct {
	JSON bool `help:"Print the summary as JSON."`
}

func (cmd *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	active := f.GetActiveChallenge(bg)
	if !active.OK() {
		return active.Err
	}
	if active.Data == nil {
		return apperrors.Validation("no active challenge (start one with 'hard75 challenge start')")
	}
	tasks := f.GetTasks(bg)
	if !tasks.OK() {
		return tasks.Err
	}

	now := ctx.CurrentTime()
	dates, err := stats.Dates(*active.Data, now)
	if err != nil {
		return err
	}
	history := f.CompletionHistory(bg, dates)
	s, err := stats.Compute(*active.Data, tasks.Data, history, now)
	if err != nil {
		return err
	}

	if cmd.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Day %d of %d (%d%%)", s.DayNumber, constants.ChallengeDays, s.ProgressPercent)))
	ctx.Printf("Perfect days:     %d of %d\n", s.PerfectDays, s.DaysTracked)
	ctx.Printf("Completion rate:  %d%%\n", s.CompletionRate)
	ctx.Printf("Current streak:   %d days\n", s.CurrentStreak)
	ctx.Printf("Longest streak:   %d days\n", s.LongestStreak)
	ctx.Printf("Days remaining:   %d\n", s.DaysRemaining)

	if len(s.Weeks) > 0 {
		ctx.Println()
		ctx.Println(cli.HeaderStyle.Render("Weekly breakdown"))
		for _, w := range s.Weeks {
			ctx.Printf("  Week %2d  %s → %s  %3d%%  %d/%d perfect\n", w.Number, w.StartDate, w.EndDate, w.Rate, w.PerfectDays, w.Days)
		}
	}
	if len(s.Tasks) > 0 {
		ctx.Println()
		ctx.Println(cli.HeaderStyle.Render("Tasks"))
		for _, t := range s.Tasks {
			ctx.Printf("  %3d%%  %s\n", t.Rate, t.TaskText)
		}
	}
	if s.Finished() {
		ctx.Println()
		ctx.Success("Challenge complete!")
	}
	if missing := len(dates) - len(history); missing > 0 && !f.IsOnline() {
		ctx.Muted("(offline: %d days without cached data count as incomplete)", missing)
	}
	return nil
}

func dateOrToday(ctx *cli.Context, date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return ctx.Today(), nil
	}
	if !utils.ValidateDateFormat(date) {
		return "", apperrors.Validation(fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", date))
	}
	return date, nil
}
