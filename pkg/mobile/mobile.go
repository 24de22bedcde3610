package mobile

import (
	"context"
	"encoding/json"

	"taxharvest/pkg/harvest"
	"taxharvest/pkg/provider"
)

// Session wraps one harvest dashboard for gomobile bindings. Every call
// exchanges plain strings so the bound API stays within gomobile's types.
type Session struct {
	store  *harvest.Store
	repo   *provider.Repository
	loader *harvest.Loader
}

// NewSession creates an empty session fed through LoadJSON.
func NewSession() *Session {
	return &Session{store: harvest.NewStore(harvest.StoreOptions{})}
}

// OpenSession creates a session backed by the sqlite provider at dbPath.
// Call Refresh to load it.
func OpenSession(dbPath string) (*Session, error) {
	repo, err := provider.Open(dbPath)
	if err != nil {
		return nil, err
	}
	s := NewSession()
	s.repo = repo
	s.loader = harvest.NewLoader(repo, s.store, nil)
	return s, nil
}

// Close releases resources.
func (s *Session) Close() error {
	if s == nil || s.repo == nil {
		return nil
	}
	return s.repo.Close()
}

// Refresh reloads both feeds from the backing database and returns the
// resulting state JSON.
func (s *Session) Refresh() (string, error) {
	if s.loader == nil {
		return "", harvest.NewError(harvest.ErrCodeInvalidInput, "session has no backing database")
	}
	if err := s.loader.Load(context.Background()); err != nil {
		return "", err
	}
	return s.StateJSON()
}

// LoadJSON feeds the session with a holdings array and a capital-gains
// envelope, both in the provider wire format.
func (s *Session) LoadJSON(holdingsJSON, capitalGainsJSON string) (string, error) {
	src := jsonSource{holdings: holdingsJSON, capitalGains: capitalGainsJSON}
	if err := harvest.NewLoader(src, s.store, nil).Load(context.Background()); err != nil {
		return "", err
	}
	return s.StateJSON()
}

// ToggleJSON flips coin's selection.
func (s *Session) ToggleJSON(coin string) (string, error) {
	s.store.Toggle(coin)
	return s.StateJSON()
}

// SelectAllJSON selects every holding.
func (s *Session) SelectAllJSON() (string, error) {
	s.store.SelectAll()
	return s.StateJSON()
}

// ClearJSON empties the selection.
func (s *Session) ClearJSON() (string, error) {
	s.store.ClearSelection()
	return s.StateJSON()
}

// StateJSON returns the current state.
func (s *Session) StateJSON() (string, error) {
	return marshalJSON(newStateView(s.store.Snapshot()))
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type stateView struct {
	Version         uint64                 `json:"version"`
	Rows            []harvest.Row          `json:"holdings"`
	CapitalGains    *harvest.CapitalGains  `json:"capitalGains"`
	AfterHarvesting *harvest.CapitalGains  `json:"afterHarvesting"`
	Summary         *harvest.Summary       `json:"summary"`
	Selected        harvest.Selection      `json:"selected"`
	SelectionState  harvest.SelectionState `json:"selectionState"`
	Loading         bool                   `json:"loading"`
	Error           string                 `json:"error,omitempty"`
}

func newStateView(st harvest.State) stateView {
	return stateView{
		Version:         st.Version,
		Rows:            harvest.BuildRows(st.Holdings, st.Selected),
		CapitalGains:    st.CapitalGains,
		AfterHarvesting: st.AfterHarvesting,
		Summary:         st.Summary(),
		Selected:        st.Selected,
		SelectionState:  st.SelectionState(),
		Loading:         st.Loading(),
		Error:           st.ErrorMessage(),
	}
}

// jsonSource serves pre-fetched payloads through the harvest.Source contract.
type jsonSource struct {
	holdings     string
	capitalGains string
}

func (j jsonSource) FetchHoldings(context.Context) ([]harvest.Holding, error) {
	return harvest.DecodeHoldings([]byte(j.holdings))
}

func (j jsonSource) FetchCapitalGains(context.Context) (harvest.CapitalGains, error) {
	return harvest.DecodeCapitalGains([]byte(j.capitalGains))
}
