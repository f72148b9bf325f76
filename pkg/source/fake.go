package source

import (
	"context"
	"sync"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Fake is an in-memory Source for tests. Records are returned in the order
// they were added, matching the fetch-order insertion guarantee.
type Fake struct {
	mu      sync.Mutex
	records map[models.EntityKind][]Record
	// Errs forces FetchAll to fail for a kind.
	Errs map[models.EntityKind]error
	// FetchCalls counts FetchAll invocations per kind.
	FetchCalls map[models.EntityKind]int
}

func NewFake() *Fake {
	return &Fake{
		records:    map[models.EntityKind][]Record{},
		Errs:       map[models.EntityKind]error{},
		FetchCalls: map[models.EntityKind]int{},
	}
}

// Add appends a record for a kind.
func (f *Fake) Add(kind models.EntityKind, rec Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[kind] = append(f.records[kind], rec)
}

// Set replaces all records for a kind.
func (f *Fake) Set(kind models.EntityKind, recs []Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[kind] = recs
}

func (f *Fake) FetchAll(_ context.Context, kind models.EntityKind) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls[kind]++
	if err := f.Errs[kind]; err != nil {
		return nil, err
	}
	out := make([]Record, len(f.records[kind]))
	copy(out, f.records[kind])
	return out, nil
}

func (f *Fake) LookupName(_ context.Context, kind models.EntityKind, id string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records[kind] {
		if rec.ID == id {
			if name, ok := rec.Data["name"].(string); ok {
				return name, true
			}
			return "", false
		}
	}
	return "", false
}
