package service

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/editdb/utils"
)

// Save renders response as a markdown API example into the directory named by
// API_EXAMPLES_PATH. Without it nothing is written.
func Save(response *apitest.Response, title, description string) {
	examplesPath := os.Getenv("API_EXAMPLES_PATH")
	if examplesPath == "" {
		return
	}

	request := response.Request
	target := request.URL.Path
	if request.URL.RawQuery != "" {
		target += "?" + request.URL.RawQuery
	}
	requestBody := indentJSON(response.BodyRequestString())

	md := &strings.Builder{}
	fmt.Fprintf(md, "# %s\n\n", title)
	if description != "" {
		fmt.Fprintf(md, "%s\n\n", dedent(description))
	}

	md.WriteString("Curl example:\n\n```sh\ncurl")
	if request.Method != "GET" {
		fmt.Fprintf(md, " -X %s", request.Method)
	}
	fmt.Fprintf(md, " \"https://example.com%s\"", target)
	for _, key := range utils.GetKeys(map[string][]string(request.Header)) {
		for _, value := range request.Header[key] {
			fmt.Fprintf(md, " \\\n-H \"%s: %s\"", key, value)
		}
	}
	if requestBody != "" {
		fmt.Fprintf(md, " \\\n-d '%s'", requestBody)
	}
	md.WriteString("\n```\n\nHTTP request/response example:\n\n```http\n")

	fmt.Fprintf(md, "%s %s %s\nHost: example.com\n", request.Method, target, request.Proto)
	for _, key := range utils.GetKeys(map[string][]string(request.Header)) {
		for _, value := range request.Header[key] {
			fmt.Fprintf(md, "%s: %s\n", key, value)
		}
	}
	fmt.Fprintf(md, "\n%s\n\n", requestBody)

	fmt.Fprintf(md, "%s %s\n", response.Proto, response.Status)
	for _, key := range utils.GetKeys(map[string][]string(response.Header)) {
		if key == "Date" {
			md.WriteString("Date: Mon, 15 Aug 2022 02:08:13 GMT\n")
			continue
		}
		for _, value := range response.Header[key] {
			fmt.Fprintf(md, "%s: %s\n", key, value)
		}
	}
	fmt.Fprintf(md, "\n%s\n```\n", indentJSON(response.BodyString()))

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(examplesPath, path.Clean(filename))
	fmt.Println("Saving", p)
	err := os.WriteFile(p, []byte(md.String()), 0666)
	if err != nil {
		fmt.Println("Saving err:", err)
	}
}

func indentJSON(body string) string {
	var value any
	err := json.Unmarshal([]byte(body), &value)
	if err != nil {
		return body
	}
	b, err := json.Marshal(value, json.Deterministic(true), jsontext.WithIndent("    "))
	if err != nil {
		return body
	}
	return string(b)
}

// dedent removes the common leading tabs of a raw string literal.
func dedent(d string) string {
	lines := strings.Split(strings.Trim(d, "\n"), "\n")
	tabs := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, "\t"))
		if tabs < 0 || n < tabs {
			tabs = n
		}
	}
	prefix := strings.Repeat("\t", max(tabs, 0))
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
