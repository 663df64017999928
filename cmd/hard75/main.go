package main

import (
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/cli/backups"
	"github.com/julianstephens/hard75/internal/cli/challenges"
	"github.com/julianstephens/hard75/internal/cli/data"
	"github.com/julianstephens/hard75/internal/cli/profile"
	"github.com/julianstephens/hard75/internal/cli/progress"
	"github.com/julianstephens/hard75/internal/cli/system"
	"github.com/julianstephens/hard75/internal/cli/tasks"
	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/utils"
)

var CLI struct {
	Version       kong.VersionFlag
	APIURL        string        `name:"api-url" help:"Base URL of the hard75 API." env:"HARD75_API_URL"`
	Token         string        `help:"API session token. Overrides the token stored by 'hard75 login'." env:"HARD75_TOKEN"`
	Cache         string        `help:"Cache location: SQLite path, *.json file, :memory: or a PostgreSQL connection string." env:"HARD75_CACHE" default:"${cache}"`
	ConfigDir     string        `help:"Directory for logs and lockfiles." env:"HARD75_CONFIG_DIR" default:"${config_dir}"`
	SyncInterval  time.Duration `help:"Interval between background syncs." env:"HARD75_SYNC_INTERVAL" default:"${sync_interval}"`
	ProbeInterval time.Duration `help:"Interval between connectivity checks while running in the background." env:"HARD75_PROBE_INTERVAL" default:"${probe_interval}"`
	APITimeout    time.Duration `name:"api-timeout" help:"Timeout for each API request." default:"${api_timeout}"`
	Timezone      string        `help:"IANA timezone that decides when a challenge day starts. Defaults to the system timezone." env:"HARD75_TIMEZONE"`
	Offline       bool          `help:"Do not contact the API; work from the local cache."`
	Debug         bool          `help:"Log debug output to stderr."`

	Init      system.InitCmd          `cmd:"" help:"Create your profile, challenge and default tasks."`
	Login     system.LoginCmd         `cmd:"" help:"Store an API session token in the OS keyring."`
	Logout    system.LogoutCmd        `cmd:"" help:"Remove the stored API session token."`
	Tui       system.TuiCmd           `cmd:"" help:"Launch the interactive checklist." default:"1"`
	Today     progress.TodayCmd       `cmd:"" help:"Show today's checklist."`
	Complete  progress.CompleteCmd    `cmd:"" help:"Mark tasks complete (or incomplete with --undo)."`
	Stats     progress.StatsCmd       `cmd:"" help:"Show streaks and completion rates."`
	Task      tasks.TaskCmd           `cmd:"" help:"Manage tasks."`
	Challenge challenges.ChallengeCmd `cmd:"" help:"Manage challenges."`
	Profile   profile.ProfileCmd      `cmd:"" help:"Show or update your profile."`
	Sync      system.SyncCmd          `cmd:"" help:"Send queued changes to the API."`
	Status    system.StatusCmd        `cmd:"" help:"Show connectivity and sync status."`
	Export    data.ExportCmd          `cmd:"" help:"Export your data as JSON."`
	Import    data.ImportCmd          `cmd:"" help:"Replace cached data with an export file."`
	Reset     system.ResetCmd         `cmd:"" help:"Delete all locally cached data."`
	Doctor    system.DoctorCmd        `cmd:"" help:"Run health checks and diagnostics."`
	Backup    struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage cache backups."`
}

func main() {
	// a missing .env file is fine
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("75 Hard challenge tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"cache":          constants.DefaultCachePath,
			"config_dir":     constants.DefaultConfigDir,
			"sync_interval":  constants.DefaultSyncInterval.String(),
			"probe_interval": constants.DefaultProbeInterval.String(),
			"api_timeout":    constants.DefaultAPITimeout.String(),
		},
	)

	configDir, err := utils.ExpandPath(CLI.ConfigDir)
	if err != nil {
		errors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}
	logger.Debug("Starting", "version", constants.Version, "command", ctx.Command())

	appCtx := cli.NewContext(cli.Config{
		APIURL:        CLI.APIURL,
		Token:         CLI.Token,
		Cache:         CLI.Cache,
		ConfigDir:     configDir,
		SyncInterval:  CLI.SyncInterval,
		ProbeInterval: CLI.ProbeInterval,
		APITimeout:    CLI.APITimeout,
		Offline:       CLI.Offline,
		Debug:         CLI.Debug,
	})
	if err := appCtx.UseTimezone(CLI.Timezone); err != nil {
		errors.Fatal(err)
	}

	err = ctx.Run(appCtx)
	if closeErr := appCtx.Close(); closeErr != nil {
		logger.Warn("Failed to close cache", "error", closeErr)
	}
	if err != nil {
		errors.Fatal(err)
	}
}
