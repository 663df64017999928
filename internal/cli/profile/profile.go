package profile

import (
	"context"

	"github.com/julianstephens/hard75/internal/cli"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

type ProfileCmd struct {
	Show ProfileShowCmd `cmd:"" default:"1" help:"Show your profile."`
	Set  ProfileSetCmd  `cmd:"" help:"Update your profile."`
}

type ProfileShowCmd struct{}

func (cmd *ProfileShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	res := f.GetProfile(bg)
	if !res.OK() {
		return res.Err
	}
	p := res.Data
	ctx.Printf("Name:    %s\n", p.Name)
	if p.Email != "" {
		ctx.Printf("Email:   %s\n", p.Email)
	}
	if p.AvatarURL != "" {
		ctx.Printf("Avatar:  %s\n", p.AvatarURL)
	}
	if !p.CreatedAt.IsZero() {
		ctx.Printf("Joined:  %s\n", p.CreatedAt.Local().Format("2006-01-02"))
	}
	ctx.CacheNotice(res.FromCache)
	return nil
}

type ProfileSetCmd struct {
	Name   *string `help:"New display name."`
	Avatar *string `help:"New avatar URL."`
}

func (cmd *ProfileSetCmd) Run(ctx *cli.Context) error {
	if cmd.Name == nil && cmd.Avatar == nil {
		return apperrors.Validation("nothing to update (pass --name or --avatar)")
	}
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	res := f.UpdateProfile(bg, models.UpdateProfileRequest{Name: cmd.Name, AvatarURL: cmd.Avatar})
	return cli.Report(ctx, res, "Profile updated")
}
