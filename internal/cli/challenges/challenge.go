package challenges

import (
	"context"
	"fmt"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

type ChallengeCmd struct {
	Show    ChallengeShowCmd    `cmd:"" default:"1" help:"Show the active challenge."`
	List    ChallengeListCmd    `cmd:"" help:"List all challenges."`
	Start   ChallengeStartCmd   `cmd:"" help:"Start a new challenge."`
	Restart ChallengeRestartCmd `cmd:"" help:"Abandon the active challenge and start over today."`
	Stop    ChallengeStopCmd    `cmd:"" help:"Deactivate the active challenge."`
}

type ChallengeShowCmd struct{}

func (cmd *ChallengeShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	res := f.GetActiveChallenge(bg)
	if !res.OK() {
		return res.Err
	}
	if res.Data == nil {
		ctx.Println("No active challenge. Start one with 'hard75 challenge start'.")
		return nil
	}

	c := *res.Data
	day, _ := utils.CurrentDay(c.StartDate, ctx.CurrentTime())
	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Day %d of %d", day, constants.ChallengeDays)))
	ctx.Printf("Started:    %s\n", c.StartDate)
	ctx.Printf("Ends:       %s\n", c.EndDate)
	ctx.Printf("Progress:   %d%%\n", utils.ProgressPercentage(day))
	ctx.Printf("Remaining:  %d days\n", utils.DaysRemaining(day))
	if done, _ := utils.IsComplete(c.StartDate, ctx.CurrentTime()); done {
		ctx.Success("Challenge complete!")
	}
	if c.IsProvisional() {
		ctx.Muted("(not synced yet)")
	}
	ctx.CacheNotice(res.FromCache)
	return nil
}

type ChallengeListCmd struct{}

func (cmd *ChallengeListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	res := f.GetChallenges(bg)
	if !res.OK() {
		return res.Err
	}
	if len(res.Data) == 0 {
		ctx.Println("No challenges yet.")
		return nil
	}
	for _, c := range res.Data {
		marker := " "
		if c.IsActive {
			marker = "*"
		}
		ctx.Printf("%s %s → %s  day %d\n", marker, c.StartDate, c.EndDate, c.CurrentDay)
	}
	ctx.CacheNotice(res.FromCache)
	return nil
}

type ChallengeStartCmd struct {
	Date  string `help:"Start date (YYYY-MM-DD). Defaults to today."`
	Force bool   `help:"Start even if a challenge is already active."`
}

func (cmd *ChallengeStartCmd) Run(ctx *cli.Context) error {
	date := cmd.Date
	if date == "" {
		date = ctx.Today()
	}
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}

	if !cmd.Force {
		if active := f.GetActiveChallenge(bg); active.OK() && active.Data != nil {
			return apperrors.Validation(fmt.Sprintf("a challenge started %s is already active (use --force or 'hard75 challenge restart')", active.Data.StartDate))
		}
	}
	return start(ctx, date)
}

type ChallengeRestartCmd struct {
	Yes bool `help:"Do not ask for confirmation."`
}

func (cmd *ChallengeRestartCmd) Run(ctx *cli.Context) error {
	ok, err := ctx.Confirm("Abandon the current challenge and restart from day 1?", cmd.Yes)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Restart cancelled.")
		return nil
	}
	return start(ctx, ctx.Today())
}

func start(ctx *cli.Context, date string) error {
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	res := f.CreateChallenge(bg, models.CreateChallengeRequest{StartDate: date})
	return cli.Report(ctx, res, fmt.Sprintf("Challenge started %s, ends %s", res.Data.StartDate, res.Data.EndDate))
}

type ChallengeStopCmd struct {
	Yes bool `help:"Do not ask for confirmation."`
}

func (cmd *ChallengeStopCmd) Run(ctx *cli.Context) error {
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
		ctx.Println("No active challenge.")
		return nil
	}
	ok, err := ctx.Confirm("Stop the active challenge?", cmd.Yes)
	if err != nil || !ok {
		return err
	}
	inactive := false
	res := f.UpdateChallenge(bg, models.UpdateChallengeRequest{ChallengeID: active.Data.ID, IsActive: &inactive})
	return cli.Report(ctx, res, "Challenge stopped")
}
