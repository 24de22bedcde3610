package harvest

import (
	"log/slog"
	"sync"
	"time"
)

// Feed names one of the two independent data sources.
type Feed string

const (
	FeedHoldings     Feed = "holdings"
	FeedCapitalGains Feed = "capital_gains"
)

// FetchState is the lifecycle of the latest fetch of a feed.
type FetchState string

const (
	FetchIdle    FetchState = "idle"
	FetchPending FetchState = "pending"
	FetchReady   FetchState = "ready"
	FetchFailed  FetchState = "failed"
)

// FetchStatus describes the latest fetch of one feed.
type FetchStatus struct {
	State     FetchState `json:"state"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// State is a consistent, detached copy of the store.
type State struct {
	Version           uint64        `json:"version"`
	Holdings          []Holding     `json:"holdings"`
	CapitalGains      *CapitalGains `json:"capitalGains"`
	Selected          Selection     `json:"selected"`
	AfterHarvesting   *CapitalGains `json:"afterHarvesting"`
	HoldingsFetch     FetchStatus   `json:"holdingsFetch"`
	CapitalGainsFetch FetchStatus   `json:"capitalGainsFetch"`
}

// Loading reports whether either feed has a fetch in flight.
func (st State) Loading() bool {
	return st.HoldingsFetch.State == FetchPending || st.CapitalGainsFetch.State == FetchPending
}

// ErrorMessage returns the first failed feed's message, holdings first, or
// "" when neither feed failed.
func (st State) ErrorMessage() string {
	if st.HoldingsFetch.State == FetchFailed {
		return st.HoldingsFetch.Error
	}
	if st.CapitalGainsFetch.State == FetchFailed {
		return st.CapitalGainsFetch.Error
	}
	return ""
}

// Failed reports whether any feed is in the failed state.
func (st State) Failed() bool {
	return st.HoldingsFetch.State == FetchFailed || st.CapitalGainsFetch.State == FetchFailed
}

// Summary returns the pre/after comparison, or nil until capital gains are
// known.
func (st State) Summary() *Summary {
	if st.CapitalGains == nil || st.AfterHarvesting == nil {
		return nil
	}
	s := Summarize(*st.CapitalGains, *st.AfterHarvesting)
	return &s
}

// SelectionState reports the none/some/all state of the selection.
func (st State) SelectionState() SelectionState {
	return SelectionStateOf(st.Selected, st.Holdings)
}

func (st State) clone() State {
	out := st
	out.Holdings = append([]Holding(nil), st.Holdings...)
	out.CapitalGains = cloneCapitalGainsPtr(st.CapitalGains)
	out.AfterHarvesting = cloneCapitalGainsPtr(st.AfterHarvesting)
	return out
}

// Listener receives the post-mutation state. Listeners run synchronously on
// the mutating goroutine and must not call mutation methods.
type Listener func(State)

// Dashboard is what a presentation layer may do with the store: read,
// subscribe and change the selection. Holdings and capital gains are fed
// only by fetches.
type Dashboard interface {
	Snapshot() State
	Subscribe(Listener) (unsubscribe func())
	Toggle(coin string)
	SelectAll()
	ClearSelection()
}

// StoreOptions controls Store initialization.
type StoreOptions struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Store is the session-wide harvesting state. Every mutation recomputes the
// after-harvesting projection before any reader can observe it.
type Store struct {
	logger *slog.Logger
	now    func() time.Time

	// writeMu serializes mutate-then-notify; mu guards the state record.
	writeMu sync.Mutex
	mu      sync.RWMutex

	version      uint64
	holdings     []Holding
	index        map[string]Holding
	capitalGains *CapitalGains
	selected     Selection
	projection   *CapitalGains
	fetches      map[Feed]FetchStatus

	listenersMu  sync.Mutex
	listeners    map[uint64]Listener
	nextListener uint64
}

var _ Dashboard = (*Store)(nil)

// NewStore returns an empty store: no holdings, no capital gains, nothing
// selected.
func NewStore(opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		logger:   logger,
		now:      now,
		holdings: []Holding{},
		index:    map[string]Holding{},
		fetches: map[Feed]FetchStatus{
			FeedHoldings:     {State: FetchIdle},
			FeedCapitalGains: {State: FetchIdle},
		},
		listeners: map[uint64]Listener{},
	}
}

// Snapshot returns a detached copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Holding looks up a holding in the latest snapshot.
func (s *Store) Holding(coin string) (Holding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.index[coin]
	return h, ok
}

// Subscribe registers l and returns a func that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

// ReplaceHoldings swaps in a freshly fetched holdings list. The selection is
// kept as is; identities that no longer resolve are skipped by the
// projection until a later list brings them back.
func (s *Store) ReplaceHoldings(holdings []Holding) {
	s.mutate(func() {
		s.holdings = append([]Holding{}, holdings...)
		s.index = indexHoldings(s.holdings)
		s.setFetchLocked(FeedHoldings, FetchReady, "")
		s.recomputeLocked()
	})
}

// ReplaceCapitalGains swaps in a freshly fetched pre-harvest base.
func (s *Store) ReplaceCapitalGains(cg CapitalGains) {
	s.mutate(func() {
		base := cg.Clone()
		s.capitalGains = &base
		s.setFetchLocked(FeedCapitalGains, FetchReady, "")
		s.recomputeLocked()
	})
}

// Toggle flips coin's membership in the selection.
func (s *Store) Toggle(coin string) {
	s.mutate(func() {
		s.selected = s.selected.Toggle(coin)
		s.recomputeLocked()
	})
}

// SelectAll selects every holding of the current snapshot.
func (s *Store) SelectAll() {
	s.mutate(func() {
		ids := make([]string, 0, len(s.holdings))
		for _, h := range s.holdings {
			ids = append(ids, h.Coin)
		}
		s.selected = NewSelection(ids...)
		s.recomputeLocked()
	})
}

// ClearSelection empties the selection; the projection falls back to a copy
// of the base.
func (s *Store) ClearSelection() {
	s.mutate(func() {
		s.selected = Selection{}
		s.projection = cloneCapitalGainsPtr(s.capitalGains)
	})
}

// BeginFetch marks feed as pending. Existing data stays visible.
func (s *Store) BeginFetch(feed Feed) {
	s.mutate(func() {
		s.setFetchLocked(feed, FetchPending, "")
	})
}

// FailFetch records a failed fetch. Holdings, capital gains and the
// projection are left untouched.
func (s *Store) FailFetch(feed Feed, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	s.mutate(func() {
		s.setFetchLocked(feed, FetchFailed, msg)
	})
}

func (s *Store) mutate(fn func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	fn()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) notify(snap State) {
	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(snap.clone())
	}
}

func (s *Store) recomputeLocked() {
	projection, dangling := Project(s.capitalGains, s.index, s.selected)
	for _, coin := range dangling {
		s.logger.Warn("selected holding not found in holdings index", "coin", coin)
	}
	s.projection = projection
}

func (s *Store) setFetchLocked(feed Feed, state FetchState, msg string) {
	at := s.now()
	s.fetches[feed] = FetchStatus{State: state, Error: msg, UpdatedAt: &at}
}

func (s *Store) snapshotLocked() State {
	st := State{
		Version:           s.version,
		Holdings:          s.holdings,
		CapitalGains:      s.capitalGains,
		Selected:          s.selected,
		AfterHarvesting:   s.projection,
		HoldingsFetch:     s.fetches[FeedHoldings],
		CapitalGainsFetch: s.fetches[FeedCapitalGains],
	}
	return st.clone()
}
