package service

import (
	"github.com/fulldump/editdb/collection"
	"github.com/fulldump/editdb/model"
)

type Status struct {
	EditLevel   int                     `json:"edit_level"`
	Projects    int                     `json:"projects"`
	Deleted     int                     `json:"deleted"`
	Dirty       bool                    `json:"dirty"`
	Valid       bool                    `json:"valid"`
	Changes     int                     `json:"changes"`
	BrokenRules []collection.BrokenRule `json:"broken_rules"`
}

type TaskView struct {
	model.TaskData
	New   bool `json:"new"`
	Dirty bool `json:"dirty"`
	Valid bool `json:"valid"`
}

type ProjectView struct {
	model.ProjectData
	Tasks []*TaskView `json:"tasks"`
	New   bool        `json:"new"`
	Dirty bool        `json:"dirty"`
	Valid bool        `json:"valid"`
}

func viewTask(t *model.Task) *TaskView {
	return &TaskView{
		TaskData: t.Data,
		New:      t.IsNew(),
		Dirty:    t.IsDirty(),
		Valid:    t.IsValid(),
	}
}

func viewTasks(tasks []*model.Task) []*TaskView {
	result := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, viewTask(t))
	}
	return result
}

func viewProject(p *model.Project) *ProjectView {
	return &ProjectView{
		ProjectData: p.Data,
		Tasks:       viewTasks(p.Tasks.Items()),
		New:         p.IsNew(),
		Dirty:       p.IsDirty(),
		Valid:       p.IsValid(),
	}
}

func viewProjects(projects []*model.Project) []*ProjectView {
	result := make([]*ProjectView, 0, len(projects))
	for _, p := range projects {
		result = append(result, viewProject(p))
	}
	return result
}
