package domain

// Settings represents user configurable dashboard options.
type Settings struct {
	ShowDoneTasks bool `json:"displayDoneTasks"`
}
