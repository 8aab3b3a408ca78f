package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fulldump/editdb/business"
	"github.com/fulldump/editdb/collection"
)

const (
	KindProject  = "project"
	KindProjects = "projects"
)

type ProjectData struct {
	ID    string `json:"id"`
	Name  string `json:"name" index:"always"`
	Owner string `json:"owner" index:"on-demand"`
}

var projectRules = business.MustRules[ProjectData](
	business.Rule{Property: "Name", Name: "required", Expression: `Name != ""`, Message: "project name is required"},
	business.Rule{Property: "Name", Name: "length", Expression: `size(Name) <= 80`, Message: "project name is too long"},
)

// Project owns its Tasks: edits on the project cascade into them.
type Project struct {
	business.Object[ProjectData]
	Tasks *Tasks
}

// NewProject creates a standalone root project.
func NewProject(data ProjectData) *Project {
	p := &Project{}
	p.Init(KindProject, data, projectRules)
	p.Data.ID = p.ID().String()
	p.ownTasks()
	return p
}

// NewListedProject creates a project meant to live inside Projects.
func NewListedProject(data ProjectData) *Project {
	p := NewProject(data)
	p.MarkAsChild()
	return p
}

func loadProject(data ProjectData, tasks []TaskData) (*Project, error) {
	id, err := uuid.Parse(data.ID)
	if err != nil {
		return nil, fmt.Errorf("project id '%s': %w", data.ID, err)
	}
	p := &Project{}
	p.Load(KindProject, id, data, projectRules)
	p.ownTasks()
	for _, taskData := range tasks {
		task, err := loadTask(taskData)
		if err != nil {
			return nil, err
		}
		err = p.Tasks.Add(task)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Project) ownTasks() {
	p.Tasks = newTasks(nil)
	p.Tasks.SetParent(p.Ref())
	err := p.Own(p.Tasks)
	if err != nil {
		// a fresh collection is always at level 0
		panic(err)
	}
}

// AddTask appends a new task owned by this project.
func (p *Project) AddTask(data TaskData) (*Task, error) {
	data.ProjectID = p.ID().String()
	task := NewTask(data)
	err := p.Tasks.Add(task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindTask looks a task up by id among the live tasks.
func (p *Project) FindTask(id string) (*Task, bool) {
	for _, task := range p.Tasks.All() {
		if task.Data.ID == id {
			return task, true
		}
	}
	return nil, false
}

// Patch replaces the editable fields with data. The id is kept.
func (p *Project) Patch(data ProjectData) {
	p.Update("", func(d *ProjectData) {
		data.ID = d.ID
		*d = data
	})
}

func (p *Project) Rename(name string) {
	p.Update("Name", func(d *ProjectData) {
		d.Name = name
	})
}

type Projects = collection.Collection[*Project]

func NewProjects(logf func(format string, args ...any)) *Projects {
	return collection.New[*Project](&collection.Options{
		Kind:    KindProjects,
		Indexes: collection.IndexesOf[ProjectData](),
		Logf:    logf,
	})
}

// FindProject looks a project up by id among the live projects.
func FindProject(projects *Projects, id string) (*Project, bool) {
	for _, project := range projects.All() {
		if project.Data.ID == id {
			return project, true
		}
	}
	return nil, false
}
