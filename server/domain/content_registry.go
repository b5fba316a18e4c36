package domain

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidContent  = errors.New("invalid content")
)

// ContentRegistry tracks shared items and their host sets. An item exists
// exactly as long as its host set is non-empty: every operation that shrinks
// a host set deletes the item in the same critical section.
type ContentRegistry struct {
	mu    sync.RWMutex
	items map[string]*ContentItem
}

func NewContentRegistry() *ContentRegistry {
	return &ContentRegistry{
		items: make(map[string]*ContentItem),
	}
}

// Upsert inserts the item or replaces its metadata, then adds claimant to its
// host set. Hosts carried by the incoming item are ignored; the existing host
// set and upload time of a replaced item are kept.
func (r *ContentRegistry) Upsert(item ContentItem, claimant string) ([]ContentItem, error) {
	if !item.IsValid() {
		return nil, fmt.Errorf("upsert %q: %w", item.ID, ErrInvalidContent)
	}
	if claimant == "" {
		return nil, fmt.Errorf("upsert %q: empty claimant: %w", item.ID, ErrInvalidContent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := item
	stored.Hosts = nil
	if stored.UploaderID == "" {
		stored.UploaderID = claimant
	}
	if existing, ok := r.items[item.ID]; ok {
		stored.Hosts = existing.Hosts
		stored.UploadedAt = existing.UploadedAt
	} else if stored.UploadedAt.IsZero() {
		stored.UploadedAt = time.Now()
	}
	if !slices.Contains(stored.Hosts, claimant) {
		stored.Hosts = append(stored.Hosts, claimant)
	}
	r.items[item.ID] = &stored

	return r.snapshotLocked(), nil
}

// AddHost records that sessionID now holds a full copy of the item.
func (r *ContentRegistry) AddHost(itemID, sessionID string) ([]ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, fmt.Errorf("add host %s to %q: %w", sessionID, itemID, ErrContentNotFound)
	}
	if !slices.Contains(item.Hosts, sessionID) {
		item.Hosts = append(item.Hosts, sessionID)
	}
	return r.snapshotLocked(), nil
}

// RemoveHost withdraws one session from one item. deleted reports whether the
// item was removed because its host set became empty.
func (r *ContentRegistry) RemoveHost(itemID, sessionID string) (deleted bool, snapshot []ContentItem, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok || !slices.Contains(item.Hosts, sessionID) {
		return false, nil, fmt.Errorf("remove host %s from %q: %w", sessionID, itemID, ErrContentNotFound)
	}
	item.Hosts = slices.DeleteFunc(item.Hosts, func(id string) bool { return id == sessionID })
	if len(item.Hosts) == 0 {
		delete(r.items, itemID)
		deleted = true
	}
	return deleted, r.snapshotLocked(), nil
}

// RemoveSessionHosting drops sessionID from every host set and deletes the
// items left without hosts. The returned IDs are sorted. Calling it again for
// the same session removes nothing.
func (r *ContentRegistry) RemoveSessionHosting(sessionID string) (removed []string, snapshot []ContentItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if !slices.Contains(item.Hosts, sessionID) {
			continue
		}
		item.Hosts = slices.DeleteFunc(item.Hosts, func(host string) bool { return host == sessionID })
		if len(item.Hosts) == 0 {
			delete(r.items, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed, r.snapshotLocked()
}

// HostsOf returns the host set of itemID in host-join order, or nil when the
// item does not exist.
func (r *ContentRegistry) HostsOf(itemID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil
	}
	return slices.Clone(item.Hosts)
}

func (r *ContentRegistry) Get(itemID string) (ContentItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return ContentItem{}, false
	}
	return item.clone(), true
}

func (r *ContentRegistry) Snapshot() []ContentItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *ContentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// snapshotLocked copies every item, oldest upload first. Caller holds r.mu.
func (r *ContentRegistry) snapshotLocked() []ContentItem {
	items := make([]ContentItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item.clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].UploadedAt.Equal(items[j].UploadedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].UploadedAt.Before(items[j].UploadedAt)
	})
	return items
}
