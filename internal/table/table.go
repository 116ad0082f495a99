// Package table tracks which named commands are running and under which
// OS identifier.
package table

import (
	"time"

	"github.com/loykin/devterm/internal/ordered"
)

// Record is one running command. ID is a PID on Windows and Linux and a
// Terminal window id on macOS; it is opaque to everything but the builders.
type Record struct {
	Name      string    `json:"name"`
	ID        int       `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// Table is the ordered set of running records, at most one per name.
// Iteration follows insertion order. Table is not safe for concurrent use.
type Table struct {
	recs ordered.Map[Record]
}

func New() *Table { return &Table{} }

// Add inserts rec. It returns false, leaving the table untouched, when a
// record with the same name already exists.
func (t *Table) Add(rec Record) bool {
	if t.recs.Has(rec.Name) {
		return false
	}
	t.recs.Set(rec.Name, rec)
	return true
}

// Remove deletes the record for name.
func (t *Table) Remove(name string) bool { return t.recs.Delete(name) }

func (t *Table) Get(name string) (Record, bool) { return t.recs.Get(name) }

func (t *Table) Has(name string) bool { return t.recs.Has(name) }

func (t *Table) Len() int { return t.recs.Len() }

// Names returns the running names in insertion order.
func (t *Table) Names() []string { return t.recs.Keys() }

// Records returns a snapshot of the records in insertion order.
func (t *Table) Records() []Record {
	out := make([]Record, 0, t.recs.Len())
	t.recs.Range(func(_ string, r Record) bool {
		out = append(out, r)
		return true
	})
	return out
}
