package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/cli/system"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

type ExportCmd struct {
	File string `arg:"" optional:"" help:"Output file. Writes to stdout when omitted or '-'."`
}

func (cmd *ExportCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	res := f.ExportData(bg)
	if !res.OK() {
		return res.Err
	}

	raw, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	raw = append(raw, '\n')

	if cmd.File == "" || cmd.File == "-" {
		_, err := ctx.Out.Write(raw)
		return err
	}
	if err := os.WriteFile(cmd.File, raw, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	days := len(res.Data.Completions)
	ctx.Success("Exported %d tasks and %d days of completions to %s", len(res.Data.Tasks), days, cmd.File)
	ctx.CacheNotice(res.FromCache)
	return nil
}

type ImportCmd struct {
	File     string `arg:"" help:"Export file to import. Reads stdin when '-'."`
	Yes      bool   `help:"Do not ask for confirmation."`
	NoBackup bool   `help:"Skip the automatic backup taken before the import."`
}

func (cmd *ImportCmd) Run(ctx *cli.Context) error {
	raw, err := readInput(cmd.File)
	if err != nil {
		return err
	}
	var data models.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return apperrors.Validation(fmt.Sprintf("%s is not a valid export file: %v", cmd.File, err))
	}

	ok, err := ctx.Confirm("Replace locally cached data with the import?", cmd.Yes)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Import cancelled.")
		return nil
	}
	if !cmd.NoBackup {
		system.PerformAutomaticBackup(ctx)
	}

	// imports only touch the cache
	ctx.Config.Offline = true
	f, err := ctx.Facade(context.Background())
	if err != nil {
		return err
	}
	if err := f.ImportData(data); err != nil {
		return err
	}
	ctx.Success("Imported %d challenges, %d tasks and %d days of completions", len(data.Challenges), len(data.Tasks), len(data.Completions))
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}
