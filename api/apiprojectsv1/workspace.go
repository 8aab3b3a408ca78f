package apiprojectsv1

import (
	"context"
	"net/http"

	"github.com/fulldump/editdb/service"
)

func getWorkspace(ctx context.Context) (*service.Status, error) {
	return GetServicer(ctx).Status(ctx)
}

func beginEdit(ctx context.Context) (*service.Status, error) {
	return GetServicer(ctx).BeginEdit(ctx)
}

func cancelEdit(ctx context.Context) (*service.Status, error) {
	return GetServicer(ctx).CancelEdit(ctx)
}

func applyEdit(ctx context.Context) (*service.Status, error) {
	return GetServicer(ctx).ApplyEdit(ctx)
}

func save(ctx context.Context) (*service.Status, error) {
	return GetServicer(ctx).Save(ctx)
}

func reload(ctx context.Context) (*service.Status, error) {
	return GetServicer(ctx).Reload(ctx)
}

// export streams JSON lines.
func export(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	_, err := GetServicer(ctx).Export(ctx, w)
	return err
}

type importResponse struct {
	Imported int `json:"imported"`
}

func importRecords(ctx context.Context, r *http.Request) (*importResponse, error) {
	n, err := GetServicer(ctx).Import(ctx, r.Body)
	if err != nil {
		return nil, err
	}
	return &importResponse{Imported: n}, nil
}
