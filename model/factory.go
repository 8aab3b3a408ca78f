package model

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/fulldump/editdb/dataportal"
	"github.com/fulldump/editdb/store"
)

var ErrUnexpectedInstance = errors.New("unexpected instance")

// ProjectsFactory loads and saves the whole root list of projects.
type ProjectsFactory struct {
	Store store.Store
	Logf  func(format string, args ...any)
}

func (f *ProjectsFactory) Fetch(ctx context.Context, criteria any) (any, error) {
	return readProjects(ctx, f.Store, f.Logf)
}

// Update deletes, inserts and updates dirty projects (and their tasks) and
// records the list order. The same instance is returned.
func (f *ProjectsFactory) Update(ctx context.Context, instance any) (any, error) {
	projects, ok := instance.(*Projects)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedInstance, instance)
	}

	err := projects.UpdateChildren(ctx, projectPersister{store: f.Store})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, projects.Len())
	for _, project := range projects.All() {
		ids = append(ids, project.Data.ID)
	}
	err = putOrder(ctx, f.Store, rootOrder, ids)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectFactory works with one project at a time as a root object.
type ProjectFactory struct {
	Store store.Store
}

func projectID(criteria any) (string, error) {
	switch id := criteria.(type) {
	case string:
		return id, nil
	case uuid.UUID:
		return id.String(), nil
	}
	return "", fmt.Errorf("%w: project criteria %T", ErrUnexpectedInstance, criteria)
}

// Create builds a new, unsaved project. criteria may carry its initial data.
func (f *ProjectFactory) Create(ctx context.Context, criteria any) (any, error) {
	data := ProjectData{}
	switch c := criteria.(type) {
	case nil:
	case ProjectData:
		data = c
	case *ProjectData:
		data = *c
	default:
		return nil, fmt.Errorf("%w: project criteria %T", ErrUnexpectedInstance, criteria)
	}
	return NewProject(data), nil
}

func (f *ProjectFactory) Fetch(ctx context.Context, criteria any) (any, error) {
	id, err := projectID(criteria)
	if err != nil {
		return nil, err
	}
	return readProject(ctx, f.Store, id)
}

// Update writes the project, or erases it when it is marked deleted. New
// projects are appended to the root list order.
func (f *ProjectFactory) Update(ctx context.Context, instance any) (any, error) {
	project, ok := instance.(*Project)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedInstance, instance)
	}

	if project.IsDeleted() {
		if !project.IsNew() {
			err := f.remove(ctx, project.Data.ID)
			if err != nil {
				return nil, err
			}
		}
		project.MarkNew()
		return project, nil
	}

	isNew := project.IsNew()
	err := writeProject(ctx, f.Store, project)
	if err != nil {
		return nil, err
	}
	if isNew {
		order, err := getOrder(ctx, f.Store, rootOrder)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(order, project.Data.ID) {
			err = putOrder(ctx, f.Store, rootOrder, append(order, project.Data.ID))
			if err != nil {
				return nil, err
			}
		}
	}
	return project, nil
}

// Delete erases a stored project by id and returns the id.
func (f *ProjectFactory) Delete(ctx context.Context, criteria any) (any, error) {
	id, err := projectID(criteria)
	if err != nil {
		return nil, err
	}
	err = f.remove(ctx, id)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (f *ProjectFactory) remove(ctx context.Context, id string) error {
	err := eraseProject(ctx, f.Store, id)
	if err != nil {
		return err
	}
	order, err := getOrder(ctx, f.Store, rootOrder)
	if err != nil {
		return err
	}
	i := slices.Index(order, id)
	if i < 0 {
		return nil
	}
	return putOrder(ctx, f.Store, rootOrder, slices.Delete(order, i, i+1))
}

// Register binds the model factories to d.
func Register(d *dataportal.Local, s store.Store, logf func(format string, args ...any)) {
	d.Register(KindProjects, &ProjectsFactory{Store: s, Logf: logf})
	d.Register(KindProject, &ProjectFactory{Store: s})
}
