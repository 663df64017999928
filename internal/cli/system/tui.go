package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}

	// background sync while the checklist is open
	done := f.Start(bg)

	p := tea.NewProgram(tui.NewModel(f, ctx.Now), tea.WithAltScreen())
	_, err = p.Run()
	cancel()
	<-done
	if err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
