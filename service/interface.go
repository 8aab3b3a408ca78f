package service

import (
	"context"
	"errors"
	"io"

	"github.com/fulldump/editdb/model"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrBadFind         = errors.New("find needs a query, a filter, a range or a property")
	ErrUnsavedChanges  = errors.New("workspace has unsaved changes")
)

// Servicer is the workspace seen by the HTTP layer. Every call is
// serialized: there is a single writer.
type Servicer interface {
	Status(ctx context.Context) (*Status, error)

	ListProjects(ctx context.Context) ([]*ProjectView, error)
	GetProject(ctx context.Context, id string) (*ProjectView, error)
	InsertProject(ctx context.Context, index *int, data model.ProjectData) (*ProjectView, error)
	RemoveProject(ctx context.Context, id string) error
	PatchProject(ctx context.Context, id string, patch []byte) (*ProjectView, error)
	FindProjects(ctx context.Context, find *Find) ([]*ProjectView, error)

	AddTask(ctx context.Context, projectID string, index *int, data model.TaskData) (*TaskView, error)
	RemoveTask(ctx context.Context, projectID, taskID string) error
	PatchTask(ctx context.Context, projectID, taskID string, patch []byte) (*TaskView, error)
	FindTasks(ctx context.Context, projectID string, find *Find) ([]*TaskView, error)

	BeginEdit(ctx context.Context) (*Status, error)
	CancelEdit(ctx context.Context) (*Status, error)
	ApplyEdit(ctx context.Context) (*Status, error)
	Save(ctx context.Context) (*Status, error)
	Reload(ctx context.Context) (*Status, error)

	Export(ctx context.Context, w io.Writer) (int, error)
	Import(ctx context.Context, r io.Reader) (int, error)
}
