package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-json-experiment/json"

	"github.com/fulldump/editdb/collection"
	"github.com/fulldump/editdb/database"
	"github.com/fulldump/editdb/model"
	"github.com/fulldump/editdb/store"
)

// Service keeps one workspace: the root list of projects fetched through the
// database dispatcher. It is loaded on first use.
type Service struct {
	db *database.Database

	mutex    sync.Mutex
	projects *model.Projects
	changes  int
}

var _ Servicer = (*Service)(nil)

func NewService(db *database.Database) *Service {
	return &Service{
		db: db,
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.db.Config.Logf != nil {
		s.db.Config.Logf(format, args...)
	}
}

// workspace must be called with the mutex held.
func (s *Service) workspace(ctx context.Context) (*model.Projects, error) {
	if s.projects != nil {
		return s.projects, nil
	}

	result, err := s.db.Portal.Fetch(ctx, model.KindProjects, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	projects, ok := result.(*model.Projects)
	if !ok {
		return nil, fmt.Errorf("%w: %T", collection.ErrUnexpectedResult, result)
	}

	projects.Subscribe(func(e collection.ListChanged) {
		s.changes++
	})
	projects.OnSaved(func(e collection.Saved) {
		if e.Err != nil {
			s.logf("save failed: %s", e.Err.Error())
			return
		}
		s.logf("workspace saved")
	})

	s.projects = projects
	s.changes = 0
	return projects, nil
}

func (s *Service) status(projects *model.Projects) *Status {
	return &Status{
		EditLevel:   projects.EditLevel(),
		Projects:    projects.Len(),
		Deleted:     len(projects.DeletedItems()),
		Dirty:       projects.IsDirty(),
		Valid:       projects.IsValid(),
		Changes:     s.changes,
		BrokenRules: projects.BrokenRules(),
	}
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, err
	}
	return s.status(projects), nil
}

func (s *Service) ListProjects(ctx context.Context) ([]*ProjectView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, err
	}
	return viewProjects(projects.Items()), nil
}

func (s *Service) project(ctx context.Context, id string) (*model.Projects, *model.Project, error) {
	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, nil, err
	}
	project, ok := model.FindProject(projects, id)
	if !ok {
		return nil, nil, fmt.Errorf("project '%s': %w", id, ErrProjectNotFound)
	}
	return projects, project, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*ProjectView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, project, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewProject(project), nil
}

// InsertProject adds a new project at index, or at the end when index is nil.
func (s *Service) InsertProject(ctx context.Context, index *int, data model.ProjectData) (*ProjectView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, err
	}

	project := model.NewListedProject(data)
	position := projects.Len()
	if index != nil {
		position = *index
	}
	err = projects.Insert(position, project)
	if err != nil {
		return nil, err
	}
	return viewProject(project), nil
}

func (s *Service) RemoveProject(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projects, project, err := s.project(ctx, id)
	if err != nil {
		return err
	}
	_, err = projects.Remove(project)
	return err
}

// mergePatch applies a JSON merge patch (RFC 7386) to the JSON form of data.
func mergePatch[T any](data T, patch []byte) (T, error) {
	var result T
	original, err := json.Marshal(data)
	if err != nil {
		return result, err
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return result, fmt.Errorf("merge patch: %w", err)
	}
	err = json.Unmarshal(merged, &result)
	return result, err
}

func (s *Service) PatchProject(ctx context.Context, id string, patch []byte) (*ProjectView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, project, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := mergePatch(project.Data, patch)
	if err != nil {
		return nil, err
	}
	project.Patch(data)
	return viewProject(project), nil
}

func (s *Service) FindProjects(ctx context.Context, f *Find) ([]*ProjectView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, err
	}
	found, err := find(projects, f)
	if err != nil {
		return nil, err
	}
	return viewProjects(found), nil
}

func (s *Service) task(ctx context.Context, projectID, taskID string) (*model.Project, *model.Task, error) {
	_, project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	task, ok := project.FindTask(taskID)
	if !ok {
		return nil, nil, fmt.Errorf("task '%s': %w", taskID, ErrTaskNotFound)
	}
	return project, task, nil
}

func (s *Service) AddTask(ctx context.Context, projectID string, index *int, data model.TaskData) (*TaskView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if index == nil {
		task, err := project.AddTask(data)
		if err != nil {
			return nil, err
		}
		return viewTask(task), nil
	}

	data.ProjectID = project.Data.ID
	task := model.NewTask(data)
	err = project.Tasks.Insert(*index, task)
	if err != nil {
		return nil, err
	}
	return viewTask(task), nil
}

func (s *Service) RemoveTask(ctx context.Context, projectID, taskID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	project, task, err := s.task(ctx, projectID, taskID)
	if err != nil {
		return err
	}
	_, err = project.Tasks.Remove(task)
	return err
}

func (s *Service) PatchTask(ctx context.Context, projectID, taskID string, patch []byte) (*TaskView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, task, err := s.task(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	data, err := mergePatch(task.Data, patch)
	if err != nil {
		return nil, err
	}
	task.Patch(data)
	return viewTask(task), nil
}

func (s *Service) FindTasks(ctx context.Context, projectID string, f *Find) ([]*TaskView, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	found, err := find(project.Tasks, f)
	if err != nil {
		return nil, err
	}
	return viewTasks(found), nil
}

func (s *Service) edit(ctx context.Context, f func(projects *model.Projects) error) (*Status, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, err
	}
	err = f(projects)
	if err != nil {
		return nil, err
	}
	return s.status(projects), nil
}

func (s *Service) BeginEdit(ctx context.Context) (*Status, error) {
	return s.edit(ctx, (*model.Projects).BeginEdit)
}

func (s *Service) CancelEdit(ctx context.Context) (*Status, error) {
	return s.edit(ctx, (*model.Projects).CancelEdit)
}

func (s *Service) ApplyEdit(ctx context.Context) (*Status, error) {
	return s.edit(ctx, (*model.Projects).ApplyEdit)
}

func (s *Service) Save(ctx context.Context) (*Status, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := projects.Save(ctx, s.db.Portal)
	if err != nil {
		return nil, err
	}
	s.projects = saved
	return s.status(saved), nil
}

// Reload drops the workspace, unsaved changes included, and fetches it again.
func (s *Service) Reload(ctx context.Context) (*Status, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.projects = nil
	projects, err := s.workspace(ctx)
	if err != nil {
		return nil, err
	}
	return s.status(projects), nil
}

// Export streams every stored document as JSON lines. Unsaved changes are
// not part of it.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return store.Export(ctx, s.db.Store, w, model.StoreKinds()...)
}

// Import writes the records read from r into the store and reloads the
// workspace. It refuses to run over unsaved changes.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.projects != nil && (s.projects.IsDirty() || s.projects.EditLevel() > 0) {
		return 0, ErrUnsavedChanges
	}

	n, err := store.Import(ctx, s.db.Store, r)
	if err != nil {
		return n, err
	}
	s.projects = nil
	return n, nil
}
