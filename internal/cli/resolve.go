package cli

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

// ResolveTask finds a task by its 1-based position in the list, its id, or
// an unambiguous id prefix.
func ResolveTask(tasks []models.CustomTask, ref string) (models.CustomTask, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
		return tasks[n-1], nil
	}

	var matches []models.CustomTask
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.CustomTask{}, apperrors.Validation(fmt.Sprintf("no task matches %q", ref))
	default:
		return models.CustomTask{}, apperrors.Validation(fmt.Sprintf("%q matches %d tasks", ref, len(matches)))
	}
}
