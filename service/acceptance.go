package service

import (
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	a.Alternative("Empty workspace", func(a *biff.A) {
		resp := apiRequest("GET", "/workspace").Do()
		Save(resp, "Get workspace", `
			Status of the shared workspace: open edit level, number of live and
			deleted projects and whether there is something to save.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqualJson(resp.BodyJson(), JSON{
			"edit_level":   0,
			"projects":     0,
			"deleted":      0,
			"dirty":        false,
			"valid":        true,
			"changes":      0,
			"broken_rules": []interface{}{},
		})
	})

	a.Alternative("Cancel without an open edit", func(a *biff.A) {
		resp := apiRequest("POST", "/workspace:cancelEdit").Do()
		Save(resp, "Cancel edit - no edit", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusConflict)
	})

	a.Alternative("Unknown project", func(a *biff.A) {
		resp := apiRequest("GET", "/projects/nope").Do()
		Save(resp, "Get project - not found", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Insert project", func(a *biff.A) {
		resp := apiRequest("POST", "/projects").
			WithBodyJson(JSON{
				"name":  "alpha",
				"owner": "ann",
			}).Do()
		Save(resp, "Insert project", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		project := resp.BodyJsonMap()
		projectID := project["id"].(string)
		biff.AssertEqual(project["name"], "alpha")
		biff.AssertEqual(project["new"], true)
		biff.AssertEqual(project["dirty"], true)
		biff.AssertEqual(project["valid"], true)
		biff.AssertEqualJson(project["tasks"], []interface{}{})

		a.Alternative("Retrieve project", func(a *biff.A) {
			resp := apiRequest("GET", "/projects/"+projectID).Do()
			Save(resp, "Retrieve project", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJsonMap()["owner"], "ann")
		})

		a.Alternative("Save and reload", func(a *biff.A) {
			resp := apiRequest("POST", "/workspace:save").Do()
			Save(resp, "Save workspace", `
				Persists every change of the workspace. Only possible without an
				open edit and when every business rule holds.
			`)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJsonMap()["dirty"], false)

			resp = apiRequest("POST", "/workspace:reload").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			resp = apiRequest("GET", "/projects").Do()
			Save(resp, "List projects", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			projects := resp.BodyJson().([]interface{})
			biff.AssertEqual(len(projects), 1)
			biff.AssertEqual(projects[0].(JSON)["name"], "alpha")
			biff.AssertEqual(projects[0].(JSON)["new"], false)

			a.Alternative("Export", func(a *biff.A) {
				resp := apiRequest("GET", "/workspace:export").Do()
				Save(resp, "Export", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertTrue(strings.Contains(resp.BodyString(), `"alpha"`))
			})
		})

		a.Alternative("Edit and cancel", func(a *biff.A) {
			resp := apiRequest("POST", "/workspace:beginEdit").Do()
			Save(resp, "Begin edit", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["edit_level"], 1)

			resp = apiRequest("POST", "/projects/"+projectID+":patch").
				WithBodyJson(JSON{"name": "renamed"}).Do()
			Save(resp, "Patch project", `
				JSON merge patch over the project fields. The id cannot change.
			`)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqual(resp.BodyJsonMap()["name"], "renamed")

			resp = apiRequest("POST", "/workspace:save").Do()
			Save(resp, "Save workspace - edit in progress", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusConflict)

			resp = apiRequest("POST", "/workspace:cancelEdit").Do()
			Save(resp, "Cancel edit", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			resp = apiRequest("GET", "/projects/"+projectID).Do()
			biff.AssertEqual(resp.BodyJsonMap()["name"], "alpha")
		})

		a.Alternative("Remove and apply", func(a *biff.A) {
			apiRequest("POST", "/workspace:beginEdit").Do()

			resp := apiRequest("POST", "/projects/"+projectID+":remove").Do()
			Save(resp, "Remove project", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

			resp = apiRequest("POST", "/workspace:applyEdit").Do()
			Save(resp, "Apply edit", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJsonMap()["projects"], 0)

			resp = apiRequest("GET", "/projects/"+projectID).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Broken rules block the save", func(a *biff.A) {
			resp := apiRequest("POST", "/projects/"+projectID+":patch").
				WithBodyJson(JSON{"name": ""}).Do()
			biff.AssertEqual(resp.BodyJsonMap()["valid"], false)

			resp = apiRequest("POST", "/workspace:save").Do()
			Save(resp, "Save workspace - broken rules", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusUnprocessableEntity)
			biff.AssertEqualJson(resp.BodyJsonMap()["error"].(JSON)["broken_rules"], []JSON{
				{"property": "Name", "rule": "required", "message": "project name is required"},
			})
		})

		a.Alternative("Find projects", func(a *biff.A) {
			apiRequest("POST", "/projects").
				WithBodyJson(JSON{"name": "beta", "owner": "bob", "index": 0}).Do()

			resp := apiRequest("POST", "/projects:find").
				WithBodyJson(JSON{"property": "Name", "value": "alpha"}).Do()
			Save(resp, "Find projects - by property", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			found := resp.BodyJson().([]interface{})
			biff.AssertEqual(len(found), 1)
			biff.AssertEqual(found[0].(JSON)["id"], projectID)

			resp = apiRequest("POST", "/projects:find").
				WithBodyJson(JSON{"query": `Owner == who`, "params": JSON{"who": "bob"}}).Do()
			Save(resp, "Find projects - by query", ``)
			found = resp.BodyJson().([]interface{})
			biff.AssertEqual(len(found), 1)
			biff.AssertEqual(found[0].(JSON)["name"], "beta")

			resp = apiRequest("POST", "/projects:find").
				WithBodyJson(JSON{"filter": JSON{"Owner": JSON{"$in": []string{"ann", "bob"}}}}).Do()
			Save(resp, "Find projects - by filter", ``)
			found = resp.BodyJson().([]interface{})
			biff.AssertEqual(len(found), 2)
			biff.AssertEqual(found[0].(JSON)["name"], "beta")

			resp = apiRequest("POST", "/projects:find").WithBodyJson(JSON{}).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Tasks", func(a *biff.A) {
			tasksPath := "/projects/" + projectID + "/tasks"
			resp := apiRequest("POST", tasksPath).
				WithBodyJson(JSON{"title": "write", "owner": "ann", "priority": 2}).Do()
			Save(resp, "Add task", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			task := resp.BodyJsonMap()
			taskID := task["id"].(string)
			biff.AssertEqual(task["project_id"], projectID)

			apiRequest("POST", tasksPath).
				WithBodyJson(JSON{"title": "review", "owner": "bob", "priority": 4}).Do()

			a.Alternative("List tasks", func(a *biff.A) {
				resp := apiRequest("GET", tasksPath).Do()
				Save(resp, "List tasks", ``)
				tasks := resp.BodyJson().([]interface{})
				biff.AssertEqual(len(tasks), 2)
				biff.AssertEqual(tasks[1].(JSON)["title"], "review")
			})

			a.Alternative("Find tasks by range", func(a *biff.A) {
				resp := apiRequest("POST", tasksPath+":find").
					WithBodyJson(JSON{"property": "Priority", "from": 3}).Do()
				Save(resp, "Find tasks - by range", ``)
				tasks := resp.BodyJson().([]interface{})
				biff.AssertEqual(len(tasks), 1)
				biff.AssertEqual(tasks[0].(JSON)["title"], "review")
			})

			a.Alternative("Patch task", func(a *biff.A) {
				resp := apiRequest("POST", tasksPath+"/"+taskID+":patch").
					WithBodyJson(JSON{"done": true, "project_id": "forged"}).Do()
				Save(resp, "Patch task", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyJsonMap()["done"], true)
				biff.AssertEqual(resp.BodyJsonMap()["project_id"], projectID)
			})

			a.Alternative("Remove task inside an edit and cancel", func(a *biff.A) {
				apiRequest("POST", "/workspace:beginEdit").Do()
				resp := apiRequest("POST", tasksPath+"/"+taskID+":remove").Do()
				Save(resp, "Remove task", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

				resp = apiRequest("GET", tasksPath+"/"+taskID).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)

				apiRequest("POST", "/workspace:cancelEdit").Do()
				resp = apiRequest("GET", tasksPath+"/"+taskID).Do()
				Save(resp, "Retrieve task", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyJsonMap()["title"], "write")
			})

			a.Alternative("Save tasks", func(a *biff.A) {
				resp := apiRequest("POST", "/workspace:save").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)

				apiRequest("POST", "/workspace:reload").Do()
				resp = apiRequest("GET", tasksPath).Do()
				tasks := resp.BodyJson().([]interface{})
				biff.AssertEqual(len(tasks), 2)
				biff.AssertEqual(tasks[0].(JSON)["new"], false)
			})
		})
	})
}
