package system

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hard75/internal/cli"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/keyring"
)

// LoginCmd stores the API session token in the OS keyring
type LoginCmd struct {
	Token  string `arg:"" optional:"" help:"API session token. Prompted for when omitted."`
	Verify bool   `help:"Check the token against the API after storing it." default:"true" negatable:""`
}

func (cmd *LoginCmd) Run(ctx *cli.Context) error {
	token := strings.TrimSpace(cmd.Token)
	if token == "" && ctx.Interactive {
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("API session token").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		)).Run()
		if err != nil {
			return err
		}
		token = strings.TrimSpace(token)
	}
	if token == "" {
		return apperrors.Validation("a session token is required")
	}

	if err := keyring.SetToken(token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	ctx.Success("Session token stored in OS keyring")

	if !cmd.Verify {
		return nil
	}
	// a flag or env token would shadow the one just stored
	ctx.Config.Token = token
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	if !f.IsOnline() {
		ctx.Warn("API unreachable, token not verified")
		return nil
	}
	profile := f.GetProfile(bg)
	switch {
	case profile.OK():
		ctx.Success("Signed in as %s", profile.Data.Name)
	case errors.Is(profile.Err, apperrors.ErrUnauthorized):
		return profile.Err
	default:
		ctx.Muted("Token accepted. Run 'hard75 init' to create your profile.")
	}
	return nil
}

// LogoutCmd removes the API session token from the OS keyring
type LogoutCmd struct{}

func (cmd *LogoutCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			ctx.Muted("No session token stored")
			return nil
		}
		return err
	}
	ctx.Success("Session token removed from OS keyring")
	return nil
}
