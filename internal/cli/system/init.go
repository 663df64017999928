package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

type InitCmd struct {
	Name     string `help:"Display name for your profile."`
	Start    string `help:"Challenge start date (YYYY-MM-DD). Defaults to today."`
	Defaults bool   `help:"Create the default task list." default:"true" negatable:""`
}

func (cmd *InitCmd) Run(ctx *cli.Context) error {
	if cmd.Name == "" && ctx.Interactive {
		if err := cmd.prompt(ctx); err != nil {
			return err
		}
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return apperrors.Validation("a profile name is required (pass --name)")
	}
	if cmd.Start == "" {
		cmd.Start = ctx.Today()
	}
	if !utils.ValidateDateFormat(cmd.Start) {
		return apperrors.Validation(fmt.Sprintf("invalid start date %q (expected YYYY-MM-DD)", cmd.Start))
	}

	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}

	if existing := f.GetProfile(bg); existing.OK() {
		ctx.Muted("Profile %s already exists", existing.Data.Name)
	} else {
		res := f.CreateProfile(bg, models.CreateProfileRequest{Name: strings.TrimSpace(cmd.Name)})
		if err := cli.Report(ctx, res, fmt.Sprintf("Created profile %s", res.Data.Name)); err != nil {
			return err
		}
	}

	if active := f.GetActiveChallenge(bg); active.OK() && active.Data != nil {
		ctx.Muted("Challenge started %s is already active (day %d)", active.Data.StartDate, active.Data.CurrentDay)
	} else {
		res := f.CreateChallenge(bg, models.CreateChallengeRequest{StartDate: cmd.Start})
		if err := cli.Report(ctx, res, fmt.Sprintf("Started challenge on %s (ends %s)", res.Data.StartDate, res.Data.EndDate)); err != nil {
			return err
		}
	}

	if cmd.Defaults {
		tasks := f.GetTasks(bg)
		if tasks.OK() && len(tasks.Data) > 0 {
			ctx.Muted("%d tasks already configured", len(tasks.Data))
		} else {
			res := f.InitializeDefaultTasks(bg, constants.DefaultTasks)
			if err := cli.Report(ctx, res, fmt.Sprintf("Created %d default tasks", len(constants.DefaultTasks))); err != nil {
				return err
			}
		}
	}

	ctx.Println()
	ctx.Println("You're all set. Run 'hard75 today' to see today's checklist.")
	return nil
}

func (cmd *InitCmd) prompt(ctx *cli.Context) error {
	if cmd.Start == "" {
		cmd.Start = ctx.Today()
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Value(&cmd.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					if len(s) > constants.MaxNameLen {
						return fmt.Errorf("name must be at most %d characters", constants.MaxNameLen)
					}
					return nil
				}),
			huh.NewInput().
				Title("Start date (YYYY-MM-DD)").
				Value(&cmd.Start).
				Validate(func(s string) error {
					if !utils.ValidateDateFormat(s) {
						return fmt.Errorf("invalid date format")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Create the default 75 Hard tasks?").
				Value(&cmd.Defaults),
		),
	)
	return form.Run()
}
