package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fulldump/editdb/collection"
	"github.com/fulldump/editdb/dataportal"
	"github.com/fulldump/editdb/service"
	"github.com/fulldump/editdb/store"
)

type PrettyError struct {
	Message     string                  `json:"message"`
	Description string                  `json:"description"`
	BrokenRules []collection.BrokenRule `json:"broken_rules,omitempty"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	type plain PrettyError
	return json.Marshal(map[string]interface{}{
		"error": plain(p),
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

type errorStatus struct {
	target      error
	status      int
	description string
}

var errorStatuses = []errorStatus{
	{service.ErrProjectNotFound, http.StatusNotFound, "project not found"},
	{service.ErrTaskNotFound, http.StatusNotFound, "task not found"},
	{store.ErrNotFound, http.StatusNotFound, "document not found"},
	{collection.ErrValidationFailed, http.StatusUnprocessableEntity, "some business rules are broken"},
	{collection.ErrUnsupportedOnChild, http.StatusConflict, "child objects are edited through their owner"},
	{collection.ErrEditInProgress, http.StatusConflict, "apply or cancel the open edit first"},
	{collection.ErrAlreadyContained, http.StatusConflict, "item already in the list"},
	{service.ErrUnsavedChanges, http.StatusConflict, "save or reload the workspace first"},
	{dataportal.ErrNotSupported, http.StatusNotImplemented, "operation not supported"},
	{collection.ErrIndexOutOfRange, http.StatusBadRequest, "index out of range"},
	{collection.ErrInvalidQuery, http.StatusBadRequest, "invalid query"},
	{service.ErrBadFind, http.StatusBadRequest, "bad find request"},
}

// describe maps err to an HTTP status and a pretty body.
func describe(err error) (int, PrettyError) {
	pretty := PrettyError{Message: err.Error()}

	mismatch := &collection.EditLevelMismatchError{}
	if errors.As(err, &mismatch) {
		pretty.Description = "there is no open edit at that level"
		return http.StatusConflict, pretty
	}

	failed := &collection.ValidationFailedError{}
	if errors.As(err, &failed) {
		pretty.BrokenRules = failed.Broken
	}

	for _, s := range errorStatuses {
		if errors.Is(err, s.target) {
			pretty.Description = s.description
			return s.status, pretty
		}
	}

	syntaxError := &json.SyntaxError{}
	if errors.As(err, &syntaxError) {
		pretty.Description = "Malformed JSON"
		return http.StatusBadRequest, pretty
	}

	pretty.Description = "Unexpected error"
	return http.StatusInternalServerError, pretty
}
