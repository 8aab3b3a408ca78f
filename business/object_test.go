package business

import (
	"errors"
	"strings"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/editdb/collection"
)

type noteData struct {
	Title string
	Words int
}

var noteRules = MustRules[noteData](
	Rule{Property: "Title", Name: "required", Expression: `Title != ""`, Message: "title is required"},
	Rule{Property: "Words", Name: "positive", Expression: `Words >= 0`, Message: "words must be positive"},
)

type note struct {
	Object[noteData]
}

func newNote(title string, words int) *note {
	n := &note{}
	n.Init("note", noteData{Title: title, Words: words}, noteRules)
	return n
}

type folderData struct {
	Name string
}

type folder struct {
	Object[folderData]
	Notes *collection.Collection[*note]
}

func newFolder(name string) *folder {
	f := &folder{}
	f.Init("folder", folderData{Name: name}, nil)
	f.Notes = collection.New[*note](&collection.Options{Kind: "notes", IsChild: true})
	f.Notes.SetParent(f.Ref())
	if err := f.Own(f.Notes); err != nil {
		panic(err)
	}
	return f
}

func TestObject_Lifecycle(t *testing.T) {
	Alternative("New note", func(a *A) {
		n := newNote("hello", 1)

		AssertTrue(n.IsNew())
		AssertTrue(n.IsDirty())
		AssertTrue(n.IsValid())
		AssertEqual(n.EditLevel(), 0)

		a.Alternative("Mark old", func(a *A) {
			n.MarkOld()
			AssertFalse(n.IsNew())
			AssertFalse(n.IsDirty())

			a.Alternative("Update marks dirty and notifies", func(a *A) {
				changed := []string{}
				n.Observe(func(property string) {
					changed = append(changed, property)
				})
				n.Update("Title", func(d *noteData) {
					d.Title = "bye"
				})
				AssertTrue(n.IsDirty())
				AssertEqual(changed, []string{"Title"})
				value, ok := n.Property("Title")
				AssertTrue(ok)
				AssertEqual(value, "bye")
			})

			a.Alternative("Cancel restores data and flags", func(a *A) {
				AssertNil(n.BeginEdit())
				n.Update("Title", func(d *noteData) {
					d.Title = "bye"
				})
				n.MarkDeleted()
				AssertNil(n.CancelEdit())

				AssertEqual(n.Data, noteData{Title: "hello", Words: 1})
				AssertFalse(n.IsDirty())
				AssertFalse(n.IsDeleted())
				AssertEqual(n.EditLevel(), 0)
			})

			a.Alternative("Nested apply then cancel", func(a *A) {
				AssertNil(n.BeginEdit())
				n.Update("Words", func(d *noteData) { d.Words = 2 })
				AssertNil(n.BeginEdit())
				n.Update("Words", func(d *noteData) { d.Words = 3 })
				AssertNil(n.ApplyEdit())
				AssertEqual(n.Data.Words, 3)
				AssertEqual(n.EditLevel(), 1)
				AssertNil(n.CancelEdit())
				AssertEqual(n.Data.Words, 1)
			})
		})

		a.Alternative("Broken rules", func(a *A) {
			n.Update("Title", func(d *noteData) {
				d.Title = ""
				d.Words = -1
			})
			AssertFalse(n.IsValid())
			AssertEqual(n.BrokenRules(), []collection.BrokenRule{
				{Property: "Title", Rule: "required", Message: "title is required"},
				{Property: "Words", Rule: "positive", Message: "words must be positive"},
			})
		})

		a.Alternative("Cancel without edit", func(a *A) {
			err := n.CancelEdit()
			mismatch := &collection.EditLevelMismatchError{}
			AssertTrue(errors.As(err, &mismatch))
			AssertEqual(n.EditLevel(), 0)
		})

		a.Alternative("Skipping an edit level", func(a *A) {
			AssertNil(n.BeginEdit())
			AssertNil(n.BeginEdit())
			n.Update("Words", func(d *noteData) { d.Words = 5 })
			mismatch := &collection.EditLevelMismatchError{}

			AssertTrue(errors.As(n.UndoChanges(0), &mismatch))
			AssertEqual(n.EditLevel(), 2)
			AssertEqual(n.Data.Words, 5)

			AssertTrue(errors.As(n.AcceptChanges(0), &mismatch))
			AssertEqual(n.EditLevel(), 2)

			AssertNil(n.UndoChanges(1))
			AssertEqual(n.Data.Words, 1)
			AssertEqual(n.EditLevel(), 1)
		})

		a.Alternative("Child objects are edited through their owner", func(a *A) {
			n.MarkAsChild()
			AssertEqual(n.BeginEdit(), collection.ErrUnsupportedOnChild)
			AssertEqual(n.CancelEdit(), collection.ErrUnsupportedOnChild)
			AssertEqual(n.ApplyEdit(), collection.ErrUnsupportedOnChild)
		})

		a.Alternative("Dump", func(a *A) {
			AssertTrue(strings.Contains(n.Dump(), "hello"))
		})
	})
}

func TestObject_CascadesIntoOwnedCollection(t *testing.T) {
	Alternative("Folder with one note", func(a *A) {
		f := newFolder("inbox")
		first := newNote("first", 1)
		first.MarkAsChild()
		AssertNil(f.Notes.Add(first))
		first.MarkOld()
		f.MarkOld()

		AssertFalse(f.IsDirty())
		AssertEqual(first.Parent(), f.Notes.Ref())
		AssertEqual(f.Notes.Parent(), f.Ref())

		a.Alternative("Cancel drops inserted notes and restores edits", func(a *A) {
			AssertNil(f.BeginEdit())
			AssertEqual(f.Notes.EditLevel(), 1)
			AssertEqual(first.EditLevel(), 1)

			second := newNote("second", 2)
			second.MarkAsChild()
			AssertNil(f.Notes.Add(second))
			first.Update("Title", func(d *noteData) { d.Title = "changed" })
			AssertTrue(f.IsDirty())

			AssertNil(f.CancelEdit())
			AssertEqual(f.Notes.Items(), []*note{first})
			AssertEqual(first.Data.Title, "first")
			AssertFalse(f.IsDirty())
			AssertEqual(f.Notes.EditLevel(), 0)
		})

		a.Alternative("Apply keeps them", func(a *A) {
			AssertNil(f.BeginEdit())
			second := newNote("second", 2)
			second.MarkAsChild()
			AssertNil(f.Notes.Add(second))
			AssertNil(f.ApplyEdit())

			AssertEqual(f.Notes.Len(), 2)
			AssertEqual(second.EditLevelAdded(), 0)
			AssertTrue(f.IsDirty())
		})

		a.Alternative("Invalid note makes the folder invalid", func(a *A) {
			first.Update("Title", func(d *noteData) { d.Title = "" })
			AssertFalse(f.IsValid())
			AssertEqual(len(f.BrokenRules()), 1)
		})

		a.Alternative("Owned collection cannot be edited alone", func(a *A) {
			AssertEqual(f.Notes.BeginEdit(), collection.ErrUnsupportedOnChild)
		})
	})
}

func TestRules_Invalid(t *testing.T) {
	_, err := NewRules[noteData](Rule{Name: "broken", Expression: `Title ==`})
	AssertNotNil(err)

	_, err = NewRules[noteData](Rule{Name: "not bool", Expression: `"x"`})
	AssertNotNil(err)

	AssertEqual(len((*Rules)(nil).Check(map[string]any{})), 0)
}
