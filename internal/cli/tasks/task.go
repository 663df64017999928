package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/hard75/internal/cli"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
)

type TaskCmd struct {
	List   TaskListCmd   `cmd:"" default:"1" help:"List all tasks."`
	Add    TaskAddCmd    `cmd:"" help:"Add a new task."`
	Edit   TaskEditCmd   `cmd:"" help:"Edit an existing task."`
	Delete TaskDeleteCmd `cmd:"" help:"Delete a task."`
}

func loadTasks(ctx *cli.Context) (*storage.Facade, storage.ReadResult[[]models.CustomTask], error) {
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return nil, storage.ReadResult[[]models.CustomTask]{}, err
	}
	res := f.GetTasks(bg)
	if !res.OK() {
		return nil, res, res.Err
	}
	return f, res, nil
}

type TaskListCmd struct {
	IDs bool `help:"Show task ids."`
}

func (cmd *TaskListCmd) Run(ctx *cli.Context) error {
	_, res, err := loadTasks(ctx)
	if err != nil {
		return err
	}
	if len(res.Data) == 0 {
		ctx.Println("No tasks yet. Add one with 'hard75 task add'.")
		return nil
	}
	for i, t := range res.Data {
		line := fmt.Sprintf("%2d. %s", i+1, t.TaskText)
		if cmd.IDs {
			line += fmt.Sprintf("  (%s)", t.ID)
		}
		if t.IsProvisional() {
			line += "  [not synced]"
		}
		ctx.Println(line)
	}
	ctx.CacheNotice(res.FromCache)
	return nil
}

type TaskAddCmd struct {
	Text     []string `arg:"" help:"Task text."`
	Position int      `help:"1-based position in the list. Defaults to the end."`
}

func (cmd *TaskAddCmd) Run(ctx *cli.Context) error {
	text := strings.TrimSpace(strings.Join(cmd.Text, " "))
	req := models.CreateTaskRequest{TaskText: text}
	if cmd.Position > 0 {
		order := cmd.Position - 1
		req.OrderIndex = &order
	}

	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}
	res := f.CreateTask(bg, req)
	return cli.Report(ctx, res, fmt.Sprintf("Added task: %s", text))
}

type TaskEditCmd struct {
	Task     string  `arg:"" help:"Task number, id or id prefix."`
	Text     *string `help:"New task text."`
	Position *int    `help:"New 1-based position."`
}

func (cmd *TaskEditCmd) Run(ctx *cli.Context) error {
	if cmd.Text == nil && cmd.Position == nil {
		return apperrors.Validation("nothing to update (pass --text or --position)")
	}
	f, list, err := loadTasks(ctx)
	if err != nil {
		return err
	}
	task, err := cli.ResolveTask(list.Data, cmd.Task)
	if err != nil {
		return err
	}

	req := models.UpdateTaskRequest{TaskID: task.ID, TaskText: cmd.Text}
	if cmd.Position != nil {
		order := *cmd.Position - 1
		req.OrderIndex = &order
	}
	res := f.UpdateTask(context.Background(), req)
	return cli.Report(ctx, res, fmt.Sprintf("Updated task: %s", res.Data.TaskText))
}

type TaskDeleteCmd struct {
	Task string `arg:"" help:"Task number, id or id prefix."`
	Yes  bool   `help:"Do not ask for confirmation."`
}

func (cmd *TaskDeleteCmd) Run(ctx *cli.Context) error {
	f, list, err := loadTasks(ctx)
	if err != nil {
		return err
	}
	task, err := cli.ResolveTask(list.Data, cmd.Task)
	if err != nil {
		return err
	}
	ok, err := ctx.Confirm(fmt.Sprintf("Delete %q?", task.TaskText), cmd.Yes)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Delete cancelled.")
		return nil
	}
	res := f.DeleteTask(context.Background(), models.DeleteTaskRequest{TaskID: task.ID})
	return cli.Report(ctx, res, fmt.Sprintf("Deleted task: %s", task.TaskText))
}
