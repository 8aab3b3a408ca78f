package apiprojectsv1

import (
	"context"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/editdb/model"
	"github.com/fulldump/editdb/service"
)

func listProjects(ctx context.Context) ([]*service.ProjectView, error) {
	return GetServicer(ctx).ListProjects(ctx)
}

type insertProjectRequest struct {
	Index *int   `json:"index"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

func insertProject(ctx context.Context, w http.ResponseWriter, input *insertProjectRequest) (*service.ProjectView, error) {
	project, err := GetServicer(ctx).InsertProject(ctx, input.Index, model.ProjectData{
		Name:  input.Name,
		Owner: input.Owner,
	})
	if err != nil {
		return nil, err
	}
	w.WriteHeader(http.StatusCreated)
	return project, nil
}

func findProjects(ctx context.Context, input *service.Find) ([]*service.ProjectView, error) {
	return GetServicer(ctx).FindProjects(ctx, input)
}

func getProject(ctx context.Context) (*service.ProjectView, error) {
	projectID := box.GetUrlParameter(ctx, "projectId")
	return GetServicer(ctx).GetProject(ctx, projectID)
}

func removeProject(ctx context.Context, w http.ResponseWriter) error {
	projectID := box.GetUrlParameter(ctx, "projectId")
	err := GetServicer(ctx).RemoveProject(ctx, projectID)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// patchProject applies a JSON merge patch to the project fields.
func patchProject(ctx context.Context, r *http.Request) (*service.ProjectView, error) {
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	projectID := box.GetUrlParameter(ctx, "projectId")
	return GetServicer(ctx).PatchProject(ctx, projectID, patch)
}
