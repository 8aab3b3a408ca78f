package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fulldump/editdb/business"
	"github.com/fulldump/editdb/collection"
)

const KindTask = "task"

type TaskData struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title" index:"on-demand"`
	Owner     string `json:"owner" index:"always"`
	Priority  int    `json:"priority" index:"on-demand,ordered"`
	Done      bool   `json:"done"`
}

var taskRules = business.MustRules[TaskData](
	business.Rule{Property: "Title", Name: "required", Expression: `Title != ""`, Message: "task title is required"},
	business.Rule{Property: "Title", Name: "length", Expression: `size(Title) <= 200`, Message: "task title is too long"},
	business.Rule{Property: "Priority", Name: "range", Expression: `Priority >= 0 && Priority <= 5`, Message: "task priority must be between 0 and 5"},
)

// Task always lives inside the Tasks of a Project.
type Task struct {
	business.Object[TaskData]
}

func NewTask(data TaskData) *Task {
	t := &Task{}
	t.Init(KindTask, data, taskRules)
	t.Data.ID = t.ID().String()
	t.MarkAsChild()
	return t
}

func loadTask(data TaskData) (*Task, error) {
	id, err := uuid.Parse(data.ID)
	if err != nil {
		return nil, fmt.Errorf("task id '%s': %w", data.ID, err)
	}
	t := &Task{}
	t.Load(KindTask, id, data, taskRules)
	t.MarkAsChild()
	return t, nil
}

// Patch replaces the editable fields with data. Identity fields are kept.
func (t *Task) Patch(data TaskData) {
	t.Update("", func(d *TaskData) {
		data.ID = d.ID
		data.ProjectID = d.ProjectID
		*d = data
	})
}

func (t *Task) SetDone(done bool) {
	t.Update("Done", func(d *TaskData) {
		d.Done = done
	})
}

type Tasks = collection.Collection[*Task]

func newTasks(logf func(format string, args ...any)) *Tasks {
	return collection.New[*Task](&collection.Options{
		Kind:    "tasks",
		IsChild: true,
		Indexes: collection.IndexesOf[TaskData](),
		Logf:    logf,
	})
}
