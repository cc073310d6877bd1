package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	portmocks "github.com/bnema/atlas-crm-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCRM counts calls per collection and returns canned data.
type stubCRM struct {
	mu    sync.Mutex
	calls map[string]int

	leadFilters []domain.LeadFilter
	callFilters []domain.CallFilter
	err         error
}

func newStubCRM() *stubCRM {
	return &stubCRM{calls: map[string]int{}}
}

func (s *stubCRM) hit(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	return s.err
}

func (s *stubCRM) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubCRM) ListPipelines(context.Context) ([]domain.Pipeline, error) {
	return []domain.Pipeline{{ID: 1, Name: "Sales", Stages: []domain.Stage{{ID: 10, Name: "New"}}}}, s.hit("pipelines")
}

func (s *stubCRM) ListLeads(_ context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	s.mu.Lock()
	s.leadFilters = append(s.leadFilters, filter)
	s.mu.Unlock()
	stage := domain.StageID(10)
	return []domain.Lead{{ID: 1, Name: "Ann", StageID: &stage}, {ID: 2, Name: "Bob"}}, s.hit("leads")
}

func (s *stubCRM) GetLead(_ context.Context, id domain.LeadID) (domain.Lead, error) {
	return domain.Lead{ID: id, Name: "Ann"}, s.hit("lead")
}

func (s *stubCRM) ListDialogs(context.Context) ([]domain.Dialog, error) {
	return []domain.Dialog{{LeadID: 1, LeadName: "Ann"}}, s.hit("dialogs")
}

func (s *stubCRM) ListMessages(_ context.Context, leadID domain.LeadID) ([]domain.Message, error) {
	return []domain.Message{{ID: 1, LeadID: leadID, Content: "hi"}}, s.hit("messages")
}

func (s *stubCRM) ListCalls(_ context.Context, filter domain.CallFilter) ([]domain.Call, error) {
	s.mu.Lock()
	s.callFilters = append(s.callFilters, filter)
	s.mu.Unlock()
	return []domain.Call{{ID: 1, Direction: domain.CallInbound}}, s.hit("calls")
}

func (s *stubCRM) ListBroadcasts(context.Context) ([]domain.Broadcast, error) {
	return []domain.Broadcast{{ID: 1, Name: "Umrah", Status: domain.BroadcastSending}}, s.hit("broadcasts")
}

func (s *stubCRM) ListUsers(context.Context) ([]domain.User, error) {
	return []domain.User{adminUser()}, s.hit("users")
}

func (s *stubCRM) DistributionRules(context.Context) ([]domain.DistributionRule, error) {
	return nil, s.hit("rules")
}

func (s *stubCRM) AnalyticsSummary(context.Context) (domain.AnalyticsSummary, error) {
	return domain.AnalyticsSummary{TotalLeads: 2}, s.hit("analytics")
}

// runBinding starts b.Run and waits for the subscription and the initial load.
func runBinding[T any](t *testing.T, b *Binding[T], events *fakeEvents) (func(), <-chan BindingState[T]) {
	t.Helper()

	states := make(chan BindingState[T], 64)
	b.OnChange(func(s BindingState[T]) {
		if !s.Loading {
			states <- s
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx, events)
	}()

	select {
	case <-events.subd:
	case <-time.After(2 * time.Second):
		t.Fatal("binding never subscribed")
	}
	waitState(t, states)

	return func() {
		cancel()
		<-done
	}, states
}

func waitState[T any](t *testing.T, states <-chan BindingState[T]) BindingState[T] {
	t.Helper()
	select {
	case s := <-states:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for binding load")
		return BindingState[T]{}
	}
}

func assertNoLoad[T any](t *testing.T, states <-chan BindingState[T]) {
	t.Helper()
	select {
	case s := <-states:
		t.Fatalf("unexpected reload, loads=%d", s.Loads)
	case <-time.After(100 * time.Millisecond):
	}
}

func event(name domain.EventName, data string) domain.PushEvent {
	return domain.PushEvent{Name: name, Data: json.RawMessage(data)}
}

func TestCallsBindingRefetchesOncePerCallEvent(t *testing.T) {
	t.Parallel()

	crm := newStubCRM()
	events := newFakeEvents()
	binding := NewCallsBinding(crm, domain.CallFilter{Direction: domain.CallInbound})

	stop, states := runBinding(t, binding, events)
	defer stop()
	require.Equal(t, 1, crm.count("calls"))

	events.publish(event(domain.EventCallNew, `{"id":5,"lead_id":1,"direction":"in"}`))
	state := waitState(t, states)
	assertNoLoad(t, states)

	assert.Equal(t, 2, crm.count("calls"))
	assert.Equal(t, 2, state.Loads)
	assert.Equal(t, domain.CallInbound, crm.callFilters[1].Direction)
}

func TestBindingIgnoresUnrelatedAndUnknownEvents(t *testing.T) {
	t.Parallel()

	crm := newStubCRM()
	events := newFakeEvents()
	binding := NewInboxBinding(crm)

	stop, states := runBinding(t, binding, events)
	defer stop()

	events.publish(event(domain.EventCallNew, `{}`))
	assertNoLoad(t, states)
	events.publish(event("lead:deleted", `{}`))
	assertNoLoad(t, states)

	events.publish(event(domain.EventMessageNew, `{"lead_id":3}`))
	waitState(t, states)
	assert.Equal(t, 2, crm.count("dialogs"))
}

func TestKanbanBindingLoadsPipelinesAndCappedLeads(t *testing.T) {
	t.Parallel()

	crm := newStubCRM()
	events := newFakeEvents()
	clock := portmocks.NewMockClock(t)
	clock.EXPECT().Now().Return(time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC))
	binding := NewKanbanBinding(crm, WithBindingClock(clock))

	stop, states := runBinding(t, binding, events)
	defer stop()

	state := binding.State()
	assert.False(t, state.Loading)
	assert.Len(t, state.Value.Pipelines, 1)
	assert.Len(t, state.Value.Leads, 2)
	assert.Equal(t, time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC), state.LoadedAt)
	assert.Equal(t, KanbanLeadLimit, crm.leadFilters[0].Limit)

	grouped := state.Value.ByStage()
	assert.Len(t, grouped[10], 1)
	assert.Len(t, grouped[0], 1)

	events.publish(event(domain.EventLeadUpdated, `{"id":1}`))
	waitState(t, states)
	assert.Equal(t, 2, crm.count("pipelines"))
	assert.Equal(t, 2, crm.count("leads"))
}

func TestChatBindingFiltersMessagesByLead(t *testing.T) {
	t.Parallel()

	crm := newStubCRM()
	events := newFakeEvents()
	binding := NewChatBinding(crm, 42)

	stop, states := runBinding(t, binding, events)
	defer stop()
	assert.Equal(t, domain.LeadID(42), binding.State().Value.Lead.ID)
	assert.Equal(t, domain.LeadID(42), crm.callFilters[0].LeadID)

	events.publish(event(domain.EventMessageNew, `{"id":1,"lead_id":7}`))
	assertNoLoad(t, states)

	events.publish(event(domain.EventMessageNew, `{"id":2,"lead_id":42}`))
	waitState(t, states)

	events.publish(event(domain.EventCallNew, `{"id":3,"lead_id":7}`))
	waitState(t, states)

	assert.Equal(t, 3, crm.count("messages"))
	assert.Equal(t, 3, crm.count("lead"))
	assert.Equal(t, 3, crm.count("calls"))
}

func TestBroadcastsBindingRefetchesOnProgress(t *testing.T) {
	t.Parallel()

	crm := newStubCRM()
	events := newFakeEvents()
	binding := NewBroadcastsBinding(crm)

	stop, states := runBinding(t, binding, events)
	defer stop()

	events.publish(event(domain.EventBroadcastProgress, `{"broadcast_id":1,"sent":3,"total":10}`))
	waitState(t, states)
	assert.Equal(t, 2, crm.count("broadcasts"))
}

func TestSettingsBindingsNeverRefetch(t *testing.T) {
	t.Parallel()

	crm := newStubCRM()
	events := newFakeEvents()
	binding := NewUsersBinding(crm)

	stop, states := runBinding(t, binding, events)
	defer stop()

	for _, name := range []domain.EventName{domain.EventLeadUpdated, domain.EventMessageNew, domain.EventCallNew, domain.EventBroadcastProgress} {
		events.publish(event(name, `{}`))
		assertNoLoad(t, states)
	}
	assert.Equal(t, 1, crm.count("users"))
}

func TestBindingKeepsLastValueOnError(t *testing.T) {
	t.Parallel()

	crm := newStubCRM()
	binding := NewDashboardBinding(crm)
	require.NoError(t, binding.Refresh(context.Background()))

	crm.mu.Lock()
	crm.err = errors.New("API Error: 500")
	crm.mu.Unlock()

	require.Error(t, binding.Refresh(context.Background()))
	state := binding.State()
	assert.Equal(t, 2, state.Value.TotalLeads)
	assert.EqualError(t, state.Err, "API Error: 500")
	assert.Equal(t, 2, state.Loads)
}

func TestBindingDiscardsStaleResults(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int32
	load := func(ctx context.Context) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			<-release
			return 1, nil
		}
		return 2, nil
	}
	binding := NewBinding[int]("stale", load, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = binding.Refresh(context.Background())
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, binding.Refresh(context.Background()))
	close(release)
	<-done

	state := binding.State()
	assert.Equal(t, 2, state.Value)
	assert.Equal(t, 1, state.Loads)
}

func TestBindingRunStopsWhenSubscriptionCloses(t *testing.T) {
	t.Parallel()

	events := newFakeEvents()
	binding := NewBinding[int]("closing", func(context.Context) (int, error) { return 1, nil }, nil)

	done := make(chan error, 1)
	go func() { done <- binding.Run(context.Background(), events) }()
	<-events.subd

	require.Eventually(t, func() bool { return binding.State().Loads == 1 }, time.Second, 5*time.Millisecond)
	events.mu.Lock()
	for _, ch := range events.subs {
		close(ch)
	}
	events.subs = nil
	events.mu.Unlock()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
