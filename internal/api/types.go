package api

import (
	"taxharvest/pkg/harvest"
)

// harvestView is the render-ready session snapshot.
type harvestView struct {
	Version           uint64                 `json:"version"`
	Rows              []harvest.Row          `json:"holdings"`
	Total             int                    `json:"total"`
	CapitalGains      *harvest.CapitalGains  `json:"capitalGains"`
	AfterHarvesting   *harvest.CapitalGains  `json:"afterHarvesting"`
	Summary           *harvest.Summary       `json:"summary"`
	Selected          harvest.Selection      `json:"selected"`
	SelectionState    harvest.SelectionState `json:"selectionState"`
	HoldingsFetch     harvest.FetchStatus    `json:"holdingsFetch"`
	CapitalGainsFetch harvest.FetchStatus    `json:"capitalGainsFetch"`
	Loading           bool                   `json:"loading"`
	Error             string                 `json:"error,omitempty"`
}

// viewQuery controls how rows are ordered and trimmed. Limit 0 means all.
type viewQuery struct {
	Sort  string
	Desc  bool
	Limit int
}

func newHarvestView(st harvest.State, q viewQuery) harvestView {
	rows := harvest.BuildRows(st.Holdings, st.Selected)
	harvest.SortRows(rows, q.Sort, q.Desc)
	total := len(rows)
	if q.Limit > 0 && q.Limit < total {
		rows = rows[:q.Limit]
	}
	return harvestView{
		Version:           st.Version,
		Rows:              rows,
		Total:             total,
		CapitalGains:      st.CapitalGains,
		AfterHarvesting:   st.AfterHarvesting,
		Summary:           st.Summary(),
		Selected:          st.Selected,
		SelectionState:    st.SelectionState(),
		HoldingsFetch:     st.HoldingsFetch,
		CapitalGainsFetch: st.CapitalGainsFetch,
		Loading:           st.Loading(),
		Error:             st.ErrorMessage(),
	}
}
