package apiprojectsv1

import (
	"github.com/fulldump/box"
)

func BuildV1Projects(v1 *box.R) *box.R {

	v1.Resource("/workspace").
		WithActions(
			box.Get(getWorkspace).WithName("getWorkspace"),
			box.ActionPost(beginEdit).WithName("beginEdit"),
			box.ActionPost(cancelEdit).WithName("cancelEdit"),
			box.ActionPost(applyEdit).WithName("applyEdit"),
			box.ActionPost(save).WithName("save"),
			box.ActionPost(reload).WithName("reload"),
			box.Action(export).WithName("export"),
			box.ActionPost(importRecords).WithName("import"),
		)

	projects := v1.Resource("/projects").
		WithActions(
			box.Get(listProjects).WithName("listProjects"),
			box.Post(insertProject).WithName("insertProject"),
			box.ActionPost(findProjects).WithName("find"),
		)

	v1.Resource("/projects/{projectId}").
		WithActions(
			box.Get(getProject).WithName("getProject"),
			box.ActionPost(removeProject).WithName("remove"),
			box.ActionPost(patchProject).WithName("patch"),
		)

	v1.Resource("/projects/{projectId}/tasks").
		WithActions(
			box.Get(listTasks).WithName("listTasks"),
			box.Post(addTask).WithName("addTask"),
			box.ActionPost(findTasks).WithName("find"),
		)

	v1.Resource("/projects/{projectId}/tasks/{taskId}").
		WithActions(
			box.Get(getTask).WithName("getTask"),
			box.ActionPost(removeTask).WithName("remove"),
			box.ActionPost(patchTask).WithName("patch"),
		)

	return projects
}
