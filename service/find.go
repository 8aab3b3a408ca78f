package service

import (
	"github.com/fulldump/editdb/collection"
)

// Find selects items of a collection. The first field set wins, in this
// order: Query, Filter, From/To, Property. Property names are the Go field
// names (Name, Owner, Priority...).
type Find struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params"`

	// Filter is a mongo style document, e.g. {"Priority": {"$gte": 3}}.
	Filter map[string]any `json:"filter"`

	Property string `json:"property"`
	Value    any    `json:"value"`
	From     any    `json:"from"`
	To       any    `json:"to"`
}

func find[C collection.Item](c *collection.Collection[C], f *Find) ([]C, error) {
	switch {
	case f == nil:
		return nil, ErrBadFind
	case f.Query != "":
		return c.Query(f.Query, f.Params)
	case f.Filter != nil:
		return c.Match(f.Filter)
	case f.Property != "" && (f.From != nil || f.To != nil):
		r := collection.Range{From: f.From, To: f.To, HasFrom: f.From != nil, HasTo: f.To != nil}
		return c.WhereRange(f.Property, r), nil
	case f.Property != "":
		return c.WhereEqual(f.Property, collection.Const(f.Value))
	}
	return nil, ErrBadFind
}
