package model

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/fulldump/editdb/store"
)

// Store kinds. The order kind keeps the sequence of a list under the id of
// its owner.
const (
	storeProject = "project"
	storeTask    = "task"
	storeOrder   = "order"

	rootOrder = "projects"
)

func putOrder(ctx context.Context, s store.Store, owner string, ids []string) error {
	return s.Put(ctx, storeOrder, owner, ids)
}

func getOrder(ctx context.Context, s store.Store, owner string) ([]string, error) {
	ids := []string{}
	err := s.Get(ctx, storeOrder, owner, &ids)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	return ids, err
}

// sortByOrder puts items in the stored order. Items the order does not know
// go last, by id.
func sortByOrder[T any](items []T, order []string, id func(T) string) {
	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}
	rankOf := func(item T) int {
		if r, ok := rank[id(item)]; ok {
			return r
		}
		return len(order)
	}
	slices.SortStableFunc(items, func(a, b T) int {
		if c := cmp.Compare(rankOf(a), rankOf(b)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	})
}

func listTasks(ctx context.Context, s store.Store, projectID string) ([]TaskData, error) {
	tasks := []TaskData{}
	err := s.List(ctx, storeTask, func(id string, decode func(value any) error) error {
		data := TaskData{}
		err := decode(&data)
		if err != nil {
			return fmt.Errorf("decode task '%s': %w", id, err)
		}
		if projectID == "" || data.ProjectID == projectID {
			tasks = append(tasks, data)
		}
		return nil
	})
	return tasks, err
}

func orderedTasks(ctx context.Context, s store.Store, projectID string, tasks []TaskData) ([]TaskData, error) {
	order, err := getOrder(ctx, s, projectID)
	if err != nil {
		return nil, err
	}
	sortByOrder(tasks, order, func(t TaskData) string { return t.ID })
	return tasks, nil
}

func readProject(ctx context.Context, s store.Store, id string) (*Project, error) {
	data := ProjectData{}
	err := s.Get(ctx, storeProject, id, &data)
	if err != nil {
		return nil, err
	}
	tasks, err := listTasks(ctx, s, id)
	if err != nil {
		return nil, err
	}
	tasks, err = orderedTasks(ctx, s, id, tasks)
	if err != nil {
		return nil, err
	}
	return loadProject(data, tasks)
}

func readProjects(ctx context.Context, s store.Store, logf func(format string, args ...any)) (*Projects, error) {
	all := []ProjectData{}
	err := s.List(ctx, storeProject, func(id string, decode func(value any) error) error {
		data := ProjectData{}
		err := decode(&data)
		if err != nil {
			return fmt.Errorf("decode project '%s': %w", id, err)
		}
		all = append(all, data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	order, err := getOrder(ctx, s, rootOrder)
	if err != nil {
		return nil, err
	}
	sortByOrder(all, order, func(p ProjectData) string { return p.ID })

	tasks, err := listTasks(ctx, s, "")
	if err != nil {
		return nil, err
	}
	byProject := map[string][]TaskData{}
	for _, task := range tasks {
		byProject[task.ProjectID] = append(byProject[task.ProjectID], task)
	}

	projects := NewProjects(logf)
	for _, data := range all {
		projectTasks, err := orderedTasks(ctx, s, data.ID, byProject[data.ID])
		if err != nil {
			return nil, err
		}
		project, err := loadProject(data, projectTasks)
		if err != nil {
			return nil, err
		}
		project.MarkAsChild()
		err = projects.Add(project)
		if err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// writeProject persists project and its tasks, then marks them clean.
func writeProject(ctx context.Context, s store.Store, project *Project) error {
	if project.IsNew() || project.IsSelfDirty() {
		err := s.Put(ctx, storeProject, project.Data.ID, project.Data)
		if err != nil {
			return err
		}
	}

	err := project.Tasks.UpdateChildren(ctx, taskPersister{store: s})
	if err != nil {
		return err
	}

	ids := make([]string, 0, project.Tasks.Len())
	for _, task := range project.Tasks.All() {
		ids = append(ids, task.Data.ID)
	}
	err = putOrder(ctx, s, project.Data.ID, ids)
	if err != nil {
		return err
	}

	project.MarkOld()
	return nil
}

// eraseProject removes a project, every stored task of it and its order.
func eraseProject(ctx context.Context, s store.Store, id string) error {
	tasks, err := listTasks(ctx, s, id)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		err := ignoreNotFound(s.Delete(ctx, storeTask, task.ID))
		if err != nil {
			return err
		}
	}
	err = ignoreNotFound(s.Delete(ctx, storeOrder, id))
	if err != nil {
		return err
	}
	return s.Delete(ctx, storeProject, id)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

type taskPersister struct {
	store store.Store
}

func (p taskPersister) InsertChild(ctx context.Context, task *Task) error {
	return p.UpdateChild(ctx, task)
}

func (p taskPersister) UpdateChild(ctx context.Context, task *Task) error {
	err := p.store.Put(ctx, storeTask, task.Data.ID, task.Data)
	if err != nil {
		return err
	}
	task.MarkOld()
	return nil
}

func (p taskPersister) DeleteChild(ctx context.Context, task *Task) error {
	return ignoreNotFound(p.store.Delete(ctx, storeTask, task.Data.ID))
}

type projectPersister struct {
	store store.Store
}

func (p projectPersister) InsertChild(ctx context.Context, project *Project) error {
	return writeProject(ctx, p.store, project)
}

func (p projectPersister) UpdateChild(ctx context.Context, project *Project) error {
	return writeProject(ctx, p.store, project)
}

func (p projectPersister) DeleteChild(ctx context.Context, project *Project) error {
	return ignoreNotFound(eraseProject(ctx, p.store, project.Data.ID))
}

// StoreKinds lists the store kinds the model writes to.
func StoreKinds() []string {
	return []string{storeProject, storeTask, storeOrder}
}
