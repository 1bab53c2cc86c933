package tableclient

import (
	"context"
	"sync"

	"github.com/oakline/taskconsole/internal/model"
	"github.com/oakline/taskconsole/internal/service"
)

// Store is the per-table cache between the UI and the task API. Each call
// site gets its own instance from NewStore; two tables never share cached
// state even when they show the same resource.
//
// List entries are keyed by the canonical encoded query string, detail
// entries by task id. Keeping the two in separate maps is what stops a
// mutation's list invalidation from touching detail entries and vice versa.
//
// Entries follow stale-while-revalidate: a snapshot keeps returning the
// previous data while a refetch is in flight, concurrent requests for the
// same key share one in-flight fetch, and a fetch that resolves after its
// entry moved on (bumped epoch) is discarded instead of clobbering newer
// data.
type Store struct {
	name string
	api  API

	mu       sync.Mutex
	lists    map[string]*listEntry
	details  map[int64]*detailEntry
	lastPage *model.TaskPage // most recently loaded page, shown while revalidating
}

type listEntry struct {
	page     *model.TaskPage
	err      error
	stale    bool
	epoch    uint64
	inflight chan struct{}
}

type detailEntry struct {
	task     *model.Task
	err      error
	stale    bool
	epoch    uint64
	inflight chan struct{}
}

// ListSnapshot is what a table renders: Data may be a previous page while
// Loading is true (stale-while-revalidate), Err is the last fetch failure.
type ListSnapshot struct {
	Data    *model.TaskPage
	Err     error
	Loading bool
}

type DetailSnapshot struct {
	Data    *model.Task
	Err     error
	Loading bool
}

// NewStore returns an isolated cache for one table instance. name only
// labels the instance; isolation comes from the instance itself, not from
// a process-wide registry.
func NewStore(name string, api API) *Store {
	return &Store{
		name:    name,
		api:     api,
		lists:   make(map[string]*listEntry),
		details: make(map[int64]*detailEntry),
	}
}

func (s *Store) Name() string { return s.name }

// List returns the current snapshot for the query state, starting a fetch
// in the background when the entry is missing or stale.
func (s *Store) List(ctx context.Context, q QueryState) ListSnapshot {
	snap, _ := s.listAndChan(ctx, q)
	return snap
}

// WaitList blocks until the entry for q is settled (fresh data or error).
func (s *Store) WaitList(ctx context.Context, q QueryState) (*model.TaskPage, error) {
	for {
		snap, ch := s.listAndChan(ctx, q)
		if ch == nil {
			return snap.Data, snap.Err
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Store) listAndChan(ctx context.Context, q QueryState) (ListSnapshot, chan struct{}) {
	key := q.Encode()
	s.mu.Lock()
	e := s.lists[key]
	if e == nil {
		e = &listEntry{stale: true}
		s.lists[key] = e
	}
	if e.stale && e.inflight == nil {
		s.startListFetch(ctx, key, e, q)
	}
	snap := ListSnapshot{Err: e.err, Loading: e.inflight != nil}
	if e.page != nil {
		snap.Data = e.page
	} else {
		snap.Data = s.lastPage
	}
	var ch chan struct{}
	if e.inflight != nil {
		ch = e.inflight
	}
	s.mu.Unlock()
	return snap, ch
}

// startListFetch must run with s.mu held.
func (s *Store) startListFetch(ctx context.Context, key string, e *listEntry, q QueryState) {
	e.epoch++
	myEpoch := e.epoch
	ch := make(chan struct{})
	e.inflight = ch
	go func() {
		page, err := s.api.ListTasks(ctx, q)
		s.mu.Lock()
		defer s.mu.Unlock()
		defer close(ch)
		if e.inflight == ch {
			e.inflight = nil
		}
		if myEpoch != e.epoch {
			// entry was invalidated or repopulated while we were fetching;
			// a late result must not overwrite the newer state
			return
		}
		if err != nil {
			// previous page, if any, stays visible. The entry is settled, not
			// stale: errors surface to the UI and are retried only by explicit
			// user action or invalidation, never automatically.
			e.err = err
			e.stale = false
			return
		}
		e.page = page
		e.err = nil
		e.stale = false
		s.lastPage = page
	}()
}

// Detail returns the snapshot for one task's detail entry.
func (s *Store) Detail(ctx context.Context, id int64) DetailSnapshot {
	snap, _ := s.detailAndChan(ctx, id)
	return snap
}

func (s *Store) WaitDetail(ctx context.Context, id int64) (*model.Task, error) {
	for {
		snap, ch := s.detailAndChan(ctx, id)
		if ch == nil {
			return snap.Data, snap.Err
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Store) detailAndChan(ctx context.Context, id int64) (DetailSnapshot, chan struct{}) {
	s.mu.Lock()
	e := s.details[id]
	if e == nil {
		e = &detailEntry{stale: true}
		s.details[id] = e
	}
	if e.stale && e.inflight == nil {
		s.startDetailFetch(ctx, id, e)
	}
	snap := DetailSnapshot{Data: e.task, Err: e.err, Loading: e.inflight != nil}
	var ch chan struct{}
	if e.inflight != nil {
		ch = e.inflight
	}
	s.mu.Unlock()
	return snap, ch
}

func (s *Store) startDetailFetch(ctx context.Context, id int64, e *detailEntry) {
	e.epoch++
	myEpoch := e.epoch
	ch := make(chan struct{})
	e.inflight = ch
	go func() {
		task, err := s.api.GetTask(ctx, id)
		s.mu.Lock()
		defer s.mu.Unlock()
		defer close(ch)
		if e.inflight == ch {
			e.inflight = nil
		}
		if myEpoch != e.epoch {
			return
		}
		if err != nil {
			e.err = err
			e.stale = false
			return
		}
		e.task = task
		e.err = nil
		e.stale = false
	}()
}

// Create posts a new task and invalidates every cached list page. The new
// row is never spliced into cached pages: page boundaries make that unsafe
// without re-sorting server-side.
func (s *Store) Create(ctx context.Context, in *service.CreateTaskInput) (*model.Task, error) {
	t, err := s.api.CreateTask(ctx, in)
	if err != nil {
		return nil, err
	}
	s.InvalidateLists()
	return t, nil
}

// Update patches a task; on success the mutation response populates the
// detail entry directly (no redundant GET) and list entries go stale so
// they refetch on next access.
func (s *Store) Update(ctx context.Context, id int64, in *service.UpdateTaskInput) (*model.Task, error) {
	t, err := s.api.UpdateTask(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.PopulateDetail(t)
	s.InvalidateLists()
	return t, nil
}

// Delete removes a task; list entries go stale and the detail entry is
// evicted outright since refetching it would 404.
func (s *Store) Delete(ctx context.Context, id int64) (*model.Task, error) {
	t, err := s.api.DeleteTask(ctx, id)
	if err != nil {
		return nil, err
	}
	s.InvalidateLists()
	s.EvictDetail(id)
	return t, nil
}

// InvalidateLists marks every list entry stale. Data stays in place for
// stale-while-revalidate display; the epoch bump discards any in-flight
// result that would arrive with pre-mutation data.
func (s *Store) InvalidateLists() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.lists {
		e.stale = true
		e.epoch++
	}
}

// PopulateDetail writes a mutation response into the detail cache and marks
// it fresh, skipping the refetch a plain invalidation would cause.
func (s *Store) PopulateDetail(t *model.Task) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.details[t.ID]
	if e == nil {
		e = &detailEntry{}
		s.details[t.ID] = e
	}
	e.task = t
	e.err = nil
	e.stale = false
	e.epoch++
}

// EvictDetail removes the entry entirely (eviction, not invalidation).
func (s *Store) EvictDetail(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.details[id]; ok {
		e.epoch++ // orphan any in-flight fetch
		delete(s.details, id)
	}
}
