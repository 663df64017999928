package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/storage"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	// HeaderStyle is used for section titles.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
)

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

func (c *Context) Success(format string, args ...interface{}) {
	fmt.Fprintln(c.Out, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (c *Context) Warn(format string, args ...interface{}) {
	fmt.Fprintln(c.Out, warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func (c *Context) Fail(format string, args ...interface{}) {
	fmt.Fprintln(c.Out, failStyle.Render("❌ "+fmt.Sprintf(format, args...)))
}

func (c *Context) Muted(format string, args ...interface{}) {
	fmt.Fprintln(c.Out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// CacheNotice tells the user they are looking at cached data.
func (c *Context) CacheNotice(fromCache bool) {
	if fromCache {
		c.Muted("(offline: showing cached data)")
	}
}

// Report prints the outcome of a façade write. Rejected writes are returned
// as errors.
func Report[T any](c *Context, res storage.WriteResult[T], msg string) error {
	switch res.Outcome {
	case storage.OutcomeApplied:
		c.Success("%s", msg)
	case storage.OutcomePending:
		c.Warn("%s (saved locally, will sync)", msg)
	default:
		return Err(res.Err)
	}
	return nil
}

// Err converts a possibly nil *AppError into an error without producing a
// non-nil interface holding a nil pointer.
func Err(err *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	return err
}

// Confirm asks a yes/no question. Without a terminal it refuses unless yes is
// already set.
func (c *Context) Confirm(title string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !c.Interactive {
		return false, apperrors.Validation("refusing to continue without confirmation (pass --yes)")
	}
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok),
	)).Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}
