package model

// KPIEntry is one row of the per-page visit statistics returned by the
// backend, joined with the page name.
type KPIEntry struct {
	PageID           int    `json:"page_id"`
	PageName         string `json:"page_name"`
	Visits           int    `json:"visits"`
	TotalTimeSeconds int    `json:"total_time_seconds"`
}

// Page is a trackable page registered on the backend.
type Page struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
