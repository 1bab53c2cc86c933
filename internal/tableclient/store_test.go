package tableclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oakline/taskconsole/internal/model"
	"github.com/oakline/taskconsole/internal/service"
)

// stubAPI records call counts and serves canned responses. A non-nil block
// channel makes list/detail fetches hang until it closes, which is how the
// tests freeze a fetch mid-flight.
type stubAPI struct {
	mu         sync.Mutex
	listCalls  int
	getCalls   int
	block      chan struct{}
	page       *model.TaskPage
	task       *model.Task
	listErr    error
	getErr     error
	createErr  error
	updateErr  error
	deleteErr  error
	mutateTask *model.Task
}

func (a *stubAPI) ListTasks(ctx context.Context, q QueryState) (*model.TaskPage, error) {
	a.mu.Lock()
	a.listCalls++
	block, page, err := a.block, a.page, a.listErr
	a.mu.Unlock()
	if block != nil {
		<-block
	}
	return page, err
}

func (a *stubAPI) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	a.mu.Lock()
	a.getCalls++
	block, task, err := a.block, a.task, a.getErr
	a.mu.Unlock()
	if block != nil {
		<-block
	}
	return task, err
}

func (a *stubAPI) CreateTask(ctx context.Context, in *service.CreateTaskInput) (*model.Task, error) {
	return a.mutateTask, a.createErr
}

func (a *stubAPI) UpdateTask(ctx context.Context, id int64, in *service.UpdateTaskInput) (*model.Task, error) {
	return a.mutateTask, a.updateErr
}

func (a *stubAPI) DeleteTask(ctx context.Context, id int64) (*model.Task, error) {
	return a.mutateTask, a.deleteErr
}

func (a *stubAPI) counts() (list, get int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listCalls, a.getCalls
}

func (a *stubAPI) setPage(p *model.TaskPage) {
	a.mu.Lock()
	a.page = p
	a.mu.Unlock()
}

func pageOf(total int64, titles ...string) *model.TaskPage {
	list := make([]*model.Task, 0, len(titles))
	for i, title := range titles {
		list = append(list, &model.Task{ID: int64(i + 1), Title: title})
	}
	return model.NewTaskPage(list, total, 0, 10)
}

func TestWaitListReturnsFetchedPage(t *testing.T) {
	api := &stubAPI{page: pageOf(2, "a", "b")}
	s := NewStore("tasks", api)

	page, err := s.WaitList(context.Background(), NewQueryState())
	if err != nil {
		t.Fatalf("WaitList: %v", err)
	}
	if page.Total != 2 || len(page.List) != 2 {
		t.Fatalf("got total=%d len=%d, want 2/2", page.Total, len(page.List))
	}
	if calls, _ := api.counts(); calls != 1 {
		t.Fatalf("list calls = %d, want 1", calls)
	}
}

func TestRepeatedListDoesNotRefetchFreshEntry(t *testing.T) {
	api := &stubAPI{page: pageOf(1, "a")}
	s := NewStore("tasks", api)
	q := NewQueryState()

	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList: %v", err)
	}
	for i := 0; i < 3; i++ {
		snap := s.List(context.Background(), q)
		if snap.Loading {
			t.Fatalf("fresh entry reported Loading on access %d", i)
		}
	}
	if calls, _ := api.counts(); calls != 1 {
		t.Fatalf("list calls = %d, want 1", calls)
	}
}

func TestConcurrentListsShareOneFetch(t *testing.T) {
	block := make(chan struct{})
	api := &stubAPI{page: pageOf(1, "a"), block: block}
	s := NewStore("tasks", api)
	q := NewQueryState()

	// first access starts the fetch, the rest must piggyback on it
	for i := 0; i < 5; i++ {
		snap := s.List(context.Background(), q)
		if !snap.Loading {
			t.Fatalf("access %d not loading while fetch in flight", i)
		}
	}
	close(block)

	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList: %v", err)
	}
	if calls, _ := api.counts(); calls != 1 {
		t.Fatalf("list calls = %d, want 1", calls)
	}
}

func TestDistinctQueriesGetDistinctEntries(t *testing.T) {
	api := &stubAPI{page: pageOf(1, "a")}
	s := NewStore("tasks", api)

	q1 := NewQueryState()
	q2 := NewQueryState()
	q2.SetSearchKey("report")

	if _, err := s.WaitList(context.Background(), q1); err != nil {
		t.Fatalf("WaitList q1: %v", err)
	}
	if _, err := s.WaitList(context.Background(), q2); err != nil {
		t.Fatalf("WaitList q2: %v", err)
	}
	if calls, _ := api.counts(); calls != 2 {
		t.Fatalf("list calls = %d, want 2", calls)
	}
}

func TestStaleEntryKeepsServingOldDataWhileRevalidating(t *testing.T) {
	api := &stubAPI{page: pageOf(1, "old")}
	s := NewStore("tasks", api)
	q := NewQueryState()

	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList: %v", err)
	}

	block := make(chan struct{})
	api.mu.Lock()
	api.block = block
	api.page = pageOf(1, "new")
	api.mu.Unlock()

	s.InvalidateLists()
	snap := s.List(context.Background(), q)
	if !snap.Loading {
		t.Fatalf("invalidated entry not revalidating")
	}
	if snap.Data == nil || len(snap.Data.List) != 1 || snap.Data.List[0].Title != "old" {
		t.Fatalf("stale data not served during revalidation: %+v", snap.Data)
	}

	close(block)
	page, err := s.WaitList(context.Background(), q)
	if err != nil {
		t.Fatalf("WaitList after revalidate: %v", err)
	}
	if page.List[0].Title != "new" {
		t.Fatalf("got %q after revalidation, want %q", page.List[0].Title, "new")
	}
}

func TestFetchErrorSurfacesAndIsNotRetriedAutomatically(t *testing.T) {
	boom := errors.New("backend down")
	api := &stubAPI{listErr: boom}
	s := NewStore("tasks", api)
	q := NewQueryState()

	if _, err := s.WaitList(context.Background(), q); !errors.Is(err, boom) {
		t.Fatalf("WaitList err = %v, want %v", err, boom)
	}
	// settled-with-error entries must not refetch on mere access
	for i := 0; i < 3; i++ {
		snap := s.List(context.Background(), q)
		if snap.Loading {
			t.Fatalf("errored entry re-entered loading on access %d", i)
		}
		if !errors.Is(snap.Err, boom) {
			t.Fatalf("snapshot err = %v, want %v", snap.Err, boom)
		}
	}
	if calls, _ := api.counts(); calls != 1 {
		t.Fatalf("list calls = %d, want 1", calls)
	}

	// explicit invalidation is the retry mechanism
	api.mu.Lock()
	api.listErr = nil
	api.page = pageOf(1, "a")
	api.mu.Unlock()
	s.InvalidateLists()
	page, err := s.WaitList(context.Background(), q)
	if err != nil {
		t.Fatalf("WaitList after invalidate: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}
}

func TestLateResultFromInvalidatedFetchIsDiscarded(t *testing.T) {
	block := make(chan struct{})
	api := &stubAPI{page: pageOf(1, "pre-mutation"), block: block}
	s := NewStore("tasks", api)
	q := NewQueryState()

	_, ch := s.listAndChan(context.Background(), q)
	if ch == nil {
		t.Fatalf("expected an in-flight fetch")
	}

	// the mutation lands while the fetch is still out
	s.InvalidateLists()
	api.setPage(pageOf(1, "post-mutation"))
	close(block)
	<-ch

	page, err := s.WaitList(context.Background(), q)
	if err != nil {
		t.Fatalf("WaitList: %v", err)
	}
	if page.List[0].Title != "post-mutation" {
		t.Fatalf("stale in-flight result overwrote newer state: got %q", page.List[0].Title)
	}
	if calls, _ := api.counts(); calls != 2 {
		t.Fatalf("list calls = %d, want 2", calls)
	}
}

func TestUpdatePopulatesDetailWithoutRefetch(t *testing.T) {
	updated := &model.Task{ID: 7, Title: "renamed"}
	api := &stubAPI{task: &model.Task{ID: 7, Title: "original"}, mutateTask: updated}
	s := NewStore("tasks", api)

	if _, err := s.WaitDetail(context.Background(), 7); err != nil {
		t.Fatalf("WaitDetail: %v", err)
	}
	if _, err := s.Update(context.Background(), 7, &service.UpdateTaskInput{}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap := s.Detail(context.Background(), 7)
	if snap.Loading {
		t.Fatalf("detail refetching after mutation populated it")
	}
	if snap.Data == nil || snap.Data.Title != "renamed" {
		t.Fatalf("detail = %+v, want the mutation response", snap.Data)
	}
	if _, gets := api.counts(); gets != 1 {
		t.Fatalf("get calls = %d, want 1 (mutation response should fill the cache)", gets)
	}
}

func TestUpdateInvalidatesLists(t *testing.T) {
	api := &stubAPI{page: pageOf(1, "a"), mutateTask: &model.Task{ID: 1}}
	s := NewStore("tasks", api)
	q := NewQueryState()

	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList: %v", err)
	}
	if _, err := s.Update(context.Background(), 1, &service.UpdateTaskInput{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList after update: %v", err)
	}
	if calls, _ := api.counts(); calls != 2 {
		t.Fatalf("list calls = %d, want 2 (update must invalidate lists)", calls)
	}
}

func TestCreateInvalidatesListsButNotDetails(t *testing.T) {
	api := &stubAPI{
		page:       pageOf(1, "a"),
		task:       &model.Task{ID: 3, Title: "detail"},
		mutateTask: &model.Task{ID: 9, Title: "created"},
	}
	s := NewStore("tasks", api)
	q := NewQueryState()

	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList: %v", err)
	}
	if _, err := s.WaitDetail(context.Background(), 3); err != nil {
		t.Fatalf("WaitDetail: %v", err)
	}

	if _, err := s.Create(context.Background(), &service.CreateTaskInput{Title: "created"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if snap := s.Detail(context.Background(), 3); snap.Loading {
		t.Fatalf("create invalidated an unrelated detail entry")
	}
	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList after create: %v", err)
	}
	lists, gets := api.counts()
	if lists != 2 {
		t.Fatalf("list calls = %d, want 2", lists)
	}
	if gets != 1 {
		t.Fatalf("get calls = %d, want 1", gets)
	}
}

func TestDeleteEvictsDetailEntry(t *testing.T) {
	api := &stubAPI{
		task:       &model.Task{ID: 5, Title: "doomed"},
		mutateTask: &model.Task{ID: 5, Title: "doomed"},
	}
	s := NewStore("tasks", api)

	if _, err := s.WaitDetail(context.Background(), 5); err != nil {
		t.Fatalf("WaitDetail: %v", err)
	}
	deleted, err := s.Delete(context.Background(), 5)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted.ID != 5 {
		t.Fatalf("deleted id = %d, want 5", deleted.ID)
	}

	// eviction means the next access starts from nothing
	snap := s.Detail(context.Background(), 5)
	if !snap.Loading {
		t.Fatalf("evicted entry did not refetch on access")
	}
	if snap.Data != nil {
		t.Fatalf("evicted entry still serving data: %+v", snap.Data)
	}
}

func TestMutationErrorLeavesCacheUntouched(t *testing.T) {
	boom := errors.New("update rejected")
	api := &stubAPI{page: pageOf(1, "a"), updateErr: boom}
	s := NewStore("tasks", api)
	q := NewQueryState()

	if _, err := s.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList: %v", err)
	}
	if _, err := s.Update(context.Background(), 1, &service.UpdateTaskInput{}); !errors.Is(err, boom) {
		t.Fatalf("Update err = %v, want %v", err, boom)
	}
	if snap := s.List(context.Background(), q); snap.Loading {
		t.Fatalf("failed mutation invalidated the list cache")
	}
	if calls, _ := api.counts(); calls != 1 {
		t.Fatalf("list calls = %d, want 1", calls)
	}
}

func TestStoresAreIsolated(t *testing.T) {
	api := &stubAPI{page: pageOf(1, "a")}
	inbox := NewStore("inbox", api)
	archive := NewStore("archive", api)
	q := NewQueryState()

	if _, err := inbox.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList inbox: %v", err)
	}
	// same query against a second instance must fetch independently
	if _, err := archive.WaitList(context.Background(), q); err != nil {
		t.Fatalf("WaitList archive: %v", err)
	}
	if calls, _ := api.counts(); calls != 2 {
		t.Fatalf("list calls = %d, want 2 (stores must not share cache)", calls)
	}

	inbox.InvalidateLists()
	if snap := archive.List(context.Background(), q); snap.Loading {
		t.Fatalf("invalidation on one store leaked into another")
	}
}

func TestWaitListHonorsContextCancel(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	api := &stubAPI{page: pageOf(1, "a"), block: block}
	s := NewStore("tasks", api)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.WaitList(ctx, NewQueryState()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitList err = %v, want deadline exceeded", err)
	}
}
