// Package archive exports all thoughts as a JSON document to object storage
// and hands back a short-lived download link.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/google/uuid"
)

// LinkTTL is how long the presigned download link stays valid.
const LinkTTL = 15 * time.Minute

const pageSize = 100

// ErrNotConfigured is returned by a nil Exporter, i.e. when no object store
// has been configured.
var ErrNotConfigured = errors.New("archive storage is not configured")

// ThoughtLister pages through stored thoughts, newest first.
type ThoughtLister interface {
	List(ctx context.Context, skip, limit int) ([]*models.Thought, error)
}

// Result describes a finished export.
type Result struct {
	Key   string
	URL   string
	Count int
}

type document struct {
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Thoughts   []thoughtEntry `json:"thoughts"`
}

type thoughtEntry struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   *int64    `json:"owner_id"`
}

// Exporter writes thought exports to an ObjectStore.
type Exporter struct {
	lister ThoughtLister
	store  ObjectStore
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewExporter constructs an Exporter.
func NewExporter(lister ThoughtLister, store ObjectStore) *Exporter {
	return &Exporter{lister: lister, store: store, now: time.Now, newID: uuid.New}
}

// StorageKey returns the object key for an export made at t.
func StorageKey(t time.Time, id uuid.UUID) string {
	t = t.UTC()
	return fmt.Sprintf("thoughts/%04d/%02d/%02d/%s.json", t.Year(), int(t.Month()), t.Day(), id)
}

// Export collects every thought, uploads the document and presigns a GET.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	if e == nil || e.store == nil {
		return nil, ErrNotConfigured
	}

	now := e.now()
	doc := document{ExportedAt: now.UTC(), Thoughts: make([]thoughtEntry, 0)}

	for skip := 0; ; skip += pageSize {
		page, err := e.lister.List(ctx, skip, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list thoughts: %w", err)
		}
		for _, t := range page {
			doc.Thoughts = append(doc.Thoughts, thoughtEntry{
				ID:        t.ID,
				Content:   t.Content,
				CreatedAt: t.CreatedAt.UTC(),
				OwnerID:   t.OwnerID,
			})
		}
		if len(page) < pageSize {
			break
		}
	}
	doc.Count = len(doc.Thoughts)

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := StorageKey(now, e.newID())
	if err := e.store.PutObject(ctx, key, body, "application/json"); err != nil {
		return nil, err
	}

	url, err := e.store.PresignGet(ctx, key, LinkTTL)
	if err != nil {
		return nil, err
	}

	return &Result{Key: key, URL: url, Count: doc.Count}, nil
}
