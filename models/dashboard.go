package models

// DashboardData is what a role is allowed to see on its dashboard.
type DashboardData struct {
	Players     []Player      `json:"players"`
	Entries     []EntryDetail `json:"entries"`
	Tournaments []Tournament  `json:"tournaments"`
	Coaches     []Coach       `json:"coaches,omitempty"`
}

// SummaryStats are the totals shown under the manager matrix.
type SummaryStats struct {
	Players     int `json:"players"`
	Tournaments int `json:"tournaments"`
	Entries     int `json:"entries"`
}

// TableCounts is the operator's database overview.
type TableCounts struct {
	Accounts    int `json:"accounts"`
	Players     int `json:"players"`
	Tournaments int `json:"tournaments"`
	Entries     int `json:"entries"`
}
