package model

import (
	"context"
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/editdb/business"
	"github.com/fulldump/editdb/collection"
	"github.com/fulldump/editdb/dataportal"
	"github.com/fulldump/editdb/store"
)

func newPortal() (*dataportal.Local, store.Store) {
	s := store.NewMemory()
	d := dataportal.NewLocal(nil)
	Register(d, s, nil)
	return d, s
}

func fetchProjects(d *dataportal.Local) *Projects {
	result, err := d.Fetch(context.Background(), KindProjects, nil)
	AssertNil(err)
	return result.(*Projects)
}

func projectNames(projects *Projects) []string {
	names := []string{}
	for _, p := range projects.All() {
		names = append(names, p.Data.Name)
	}
	return names
}

func taskTitles(p *Project) []string {
	titles := []string{}
	for _, t := range p.Tasks.All() {
		titles = append(titles, t.Data.Title)
	}
	return titles
}

func TestProjects_SaveAndFetch(t *testing.T) {
	Alternative("Two saved projects", func(a *A) {
		ctx := context.Background()
		d, s := newPortal()

		projects := NewProjects(nil)
		alpha := NewListedProject(ProjectData{Name: "alpha", Owner: "ann"})
		beta := NewListedProject(ProjectData{Name: "beta", Owner: "bob"})
		_, err := alpha.AddTask(TaskData{Title: "write", Owner: "ann", Priority: 2})
		AssertNil(err)
		_, err = alpha.AddTask(TaskData{Title: "review", Owner: "bob", Priority: 4})
		AssertNil(err)
		AssertNil(projects.Add(beta))
		AssertNil(projects.Insert(0, alpha))

		saved, err := projects.Save(ctx, d)
		AssertNil(err)
		AssertEqual(saved, projects)
		AssertFalse(projects.IsDirty())
		AssertFalse(alpha.IsNew())

		a.Alternative("Fetch keeps order and tasks", func(a *A) {
			fetched := fetchProjects(d)
			AssertEqual(projectNames(fetched), []string{"alpha", "beta"})
			AssertFalse(fetched.IsDirty())

			first := fetched.At(0)
			AssertTrue(first.IsChild())
			AssertEqual(first.Data, alpha.Data)
			AssertEqual(taskTitles(first), []string{"write", "review"})
			AssertEqual(first.Tasks.At(0).Data.ProjectID, alpha.Data.ID)
		})

		a.Alternative("Removing a project erases its tasks", func(a *A) {
			removed, err := projects.Remove(alpha)
			AssertNil(err)
			AssertTrue(removed)
			_, err = projects.Save(ctx, d)
			AssertNil(err)
			AssertEqual(len(projects.DeletedItems()), 0)

			AssertEqual(projectNames(fetchProjects(d)), []string{"beta"})
			tasks, err := listTasks(ctx, s, "")
			AssertNil(err)
			AssertEqual(len(tasks), 0)
		})

		a.Alternative("Task changes cascade through the list", func(a *A) {
			write := alpha.Tasks.At(0)
			write.SetDone(true)
			AssertTrue(projects.IsDirty())

			AssertNil(alpha.Tasks.Insert(0, NewTask(TaskData{ProjectID: alpha.Data.ID, Title: "plan"})))
			removed, err := alpha.Tasks.Remove(alpha.Tasks.At(2))
			AssertNil(err)
			AssertTrue(removed)

			_, err = projects.Save(ctx, d)
			AssertNil(err)

			first := fetchProjects(d).At(0)
			AssertEqual(taskTitles(first), []string{"plan", "write"})
			AssertTrue(first.Tasks.At(1).Data.Done)
		})

		a.Alternative("Cancel restores projects and tasks", func(a *A) {
			AssertNil(projects.BeginEdit())
			alpha.Rename("renamed")
			alpha.Tasks.At(0).SetDone(true)
			_, err := alpha.AddTask(TaskData{Title: "extra"})
			AssertNil(err)
			removed, err := projects.Remove(beta)
			AssertNil(err)
			AssertTrue(removed)

			AssertNil(projects.CancelEdit())
			AssertEqual(projectNames(projects), []string{"alpha", "beta"})
			AssertEqual(taskTitles(alpha), []string{"write", "review"})
			AssertFalse(alpha.Tasks.At(0).Data.Done)
			AssertFalse(projects.IsDirty())
		})

		a.Alternative("Invalid task blocks the save", func(a *A) {
			alpha.Tasks.At(0).Patch(TaskData{Title: "", Priority: 9})
			_, err := projects.Save(ctx, d)
			AssertTrue(errors.Is(err, collection.ErrValidationFailed))
			failed := &collection.ValidationFailedError{}
			AssertTrue(errors.As(err, &failed))
			AssertEqual(len(failed.Broken), 2)
		})

		a.Alternative("Patch keeps identity", func(a *A) {
			id := alpha.Data.ID
			alpha.Patch(ProjectData{ID: "forged", Name: "gamma"})
			AssertEqual(alpha.Data.ID, id)
			AssertEqual(alpha.Data.Name, "gamma")
		})
	})
}

func TestProjects_Indexes(t *testing.T) {
	projects := NewProjects(nil)
	for _, name := range []string{"a", "b", "c"} {
		AssertNil(projects.Add(NewListedProject(ProjectData{Name: name, Owner: "ann"})))
	}
	AssertTrue(projects.Indexes.IndexLoaded("Name"))
	AssertFalse(projects.Indexes.IndexLoaded("Owner"))

	found, err := projects.WhereEqual("Name", collection.Const("b"))
	AssertNil(err)
	AssertEqual(len(found), 1)

	// renaming re-indexes
	found[0].Rename("z")
	found, err = projects.WhereEqual("Name", collection.Const("z"))
	AssertNil(err)
	AssertEqual(len(found), 1)

	p := projects.At(0)
	for i := 0; i < 5; i++ {
		_, err := p.AddTask(TaskData{Title: "t", Owner: "ann", Priority: i})
		AssertNil(err)
	}
	AssertEqual(len(p.Tasks.WhereRange("Priority", collection.Between(1, 3))), 3)

	found2, err := p.Tasks.Query(`Priority >= 3 && Owner == "ann"`, nil)
	AssertNil(err)
	AssertEqual(len(found2), 2)
}

func TestProjectFactory(t *testing.T) {
	Alternative("Standalone project", func(a *A) {
		ctx := context.Background()
		d, _ := newPortal()

		created, err := d.Create(ctx, KindProject, ProjectData{Name: "solo", Owner: "ann"})
		AssertNil(err)
		project := created.(*Project)
		AssertTrue(project.IsNew())
		AssertFalse(project.IsChild())
		_, err = project.AddTask(TaskData{Title: "first"})
		AssertNil(err)

		saved, err := business.Save(ctx, project, d)
		AssertNil(err)
		AssertEqual(saved, project)
		AssertFalse(project.IsDirty())

		a.Alternative("Fetch by id", func(a *A) {
			fetched, err := d.Fetch(ctx, KindProject, project.ID())
			AssertNil(err)
			AssertEqual(fetched.(*Project).Data, project.Data)
			AssertEqual(taskTitles(fetched.(*Project)), []string{"first"})
		})

		a.Alternative("It shows up in the root list", func(a *A) {
			AssertEqual(projectNames(fetchProjects(d)), []string{"solo"})
		})

		a.Alternative("Delete by id", func(a *A) {
			result, err := d.Delete(ctx, KindProject, project.Data.ID)
			AssertNil(err)
			AssertEqual(result, project.Data.ID)

			_, err = d.Fetch(ctx, KindProject, project.Data.ID)
			AssertTrue(errors.Is(err, store.ErrNotFound))
			AssertEqual(projectNames(fetchProjects(d)), []string{})
		})

		a.Alternative("Deleted flag erases it on save", func(a *A) {
			project.MarkDeleted()
			_, err := business.Save(ctx, project, d)
			AssertNil(err)
			AssertTrue(project.IsNew())
			_, err = d.Fetch(ctx, KindProject, project.Data.ID)
			AssertTrue(errors.Is(err, store.ErrNotFound))
		})

		a.Alternative("Bad criteria", func(a *A) {
			_, err := d.Fetch(ctx, KindProject, 42)
			AssertTrue(errors.Is(err, ErrUnexpectedInstance))
		})
	})
}
