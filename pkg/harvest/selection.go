package harvest

import (
	"encoding/json"
	"sort"
)

// Selection is an immutable set of coin identities marked for harvesting.
// The zero value is an empty selection.
type Selection struct {
	members map[string]struct{}
}

// NewSelection builds a selection from the given identities. Duplicates
// collapse.
func NewSelection(ids ...string) Selection {
	members := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		members[id] = struct{}{}
	}
	return Selection{members: members}
}

// Has reports membership.
func (s Selection) Has(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the number of selected identities.
func (s Selection) Len() int {
	return len(s.members)
}

// Members returns the identities in sorted order.
func (s Selection) Members() []string {
	out := make([]string, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Toggle returns a new selection with id added if absent or removed if
// present. s itself is left unchanged.
func (s Selection) Toggle(id string) Selection {
	next := make(map[string]struct{}, len(s.members)+1)
	for member := range s.members {
		next[member] = struct{}{}
	}
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	return Selection{members: next}
}

// Equal reports set equality.
func (s Selection) Equal(o Selection) bool {
	if len(s.members) != len(o.members) {
		return false
	}
	for id := range s.members {
		if _, ok := o.members[id]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the selection as a sorted array.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Members())
}

// UnmarshalJSON decodes an array of identities.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewSelection(ids...)
	return nil
}

// SelectionState summarises how much of the holdings list is selected.
type SelectionState string

const (
	SelectionNone SelectionState = "none"
	SelectionSome SelectionState = "some"
	SelectionAll  SelectionState = "all"
)

// SelectionStateOf compares the selection with the current holdings.
// Dangling identities do not count towards "all".
func SelectionStateOf(selected Selection, holdings []Holding) SelectionState {
	if len(holdings) == 0 || selected.Len() == 0 {
		return SelectionNone
	}
	hits := 0
	for _, h := range holdings {
		if selected.Has(h.Coin) {
			hits++
		}
	}
	switch {
	case hits == 0:
		return SelectionNone
	case hits == len(holdings):
		return SelectionAll
	default:
		return SelectionSome
	}
}
