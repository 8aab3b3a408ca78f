package apiprojectsv1

import (
	"context"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/editdb/model"
	"github.com/fulldump/editdb/service"
)

func listTasks(ctx context.Context) ([]*service.TaskView, error) {
	projectID := box.GetUrlParameter(ctx, "projectId")
	project, err := GetServicer(ctx).GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return project.Tasks, nil
}

type addTaskRequest struct {
	Index    *int   `json:"index"`
	Title    string `json:"title"`
	Owner    string `json:"owner"`
	Priority int    `json:"priority"`
	Done     bool   `json:"done"`
}

func addTask(ctx context.Context, w http.ResponseWriter, input *addTaskRequest) (*service.TaskView, error) {
	projectID := box.GetUrlParameter(ctx, "projectId")
	task, err := GetServicer(ctx).AddTask(ctx, projectID, input.Index, model.TaskData{
		Title:    input.Title,
		Owner:    input.Owner,
		Priority: input.Priority,
		Done:     input.Done,
	})
	if err != nil {
		return nil, err
	}
	w.WriteHeader(http.StatusCreated)
	return task, nil
}

func findTasks(ctx context.Context, input *service.Find) ([]*service.TaskView, error) {
	projectID := box.GetUrlParameter(ctx, "projectId")
	return GetServicer(ctx).FindTasks(ctx, projectID, input)
}

func getTask(ctx context.Context) (*service.TaskView, error) {
	projectID := box.GetUrlParameter(ctx, "projectId")
	taskID := box.GetUrlParameter(ctx, "taskId")
	project, err := GetServicer(ctx).GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, task := range project.Tasks {
		if task.ID == taskID {
			return task, nil
		}
	}
	return nil, service.ErrTaskNotFound
}

func removeTask(ctx context.Context, w http.ResponseWriter) error {
	projectID := box.GetUrlParameter(ctx, "projectId")
	taskID := box.GetUrlParameter(ctx, "taskId")
	err := GetServicer(ctx).RemoveTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func patchTask(ctx context.Context, r *http.Request) (*service.TaskView, error) {
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	projectID := box.GetUrlParameter(ctx, "projectId")
	taskID := box.GetUrlParameter(ctx, "taskId")
	return GetServicer(ctx).PatchTask(ctx, projectID, taskID, patch)
}
