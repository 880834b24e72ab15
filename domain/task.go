package domain

// Priority ranks a task within the worklist.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// Source tells whether a task was entered by a person or detected from the records.
type Source string

const (
	SourceManual    Source = "manual"
	SourceAutomatic Source = "automatic"
)

// TaskType classifies the work a task asks for.
type TaskType string

const (
	TypeManual            TaskType = "manual"
	TypePrepareInstrument TaskType = "prepare-instrument"
	TypeProcureAccessory  TaskType = "procure-accessory"
	TypeOrderInstrument   TaskType = "order-instrument"
)

// Task is a persisted task row owned by the record store.
type Task struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Type          TaskType   `json:"type,omitempty"`
	Priority      Priority   `json:"priority,omitempty"`
	Status        TaskStatus `json:"status,omitempty"`
	Source        Source     `json:"source,omitempty"`
	OfferIDs      []int      `json:"offerIds,omitempty"`
	CustomerIDs   []int      `json:"customerIds,omitempty"`
	InstrumentIDs []int      `json:"instrumentIds,omitempty"`
	CompletedOn   string     `json:"completedOn,omitempty"`
}

// DerivedTask is synthesized from a snapshot on every derivation pass and never stored.
// Key identifies the cause; two derived tasks with equal keys are the same item.
type DerivedTask struct {
	Key          string   `json:"key"`
	Title        string   `json:"title"`
	Type         TaskType `json:"type"`
	Priority     Priority `json:"priority"`
	OfferID      int      `json:"offerId,omitempty"`
	CustomerID   int      `json:"customerId,omitempty"`
	InstrumentID int      `json:"instrumentId,omitempty"`
}

// Status is always open: a derived task disappears instead of being completed.
func (DerivedTask) Status() TaskStatus { return StatusOpen }

// Source is always automatic.
func (DerivedTask) Source() Source { return SourceAutomatic }

// FirstID returns the first linked id or 0 when there is none.
func FirstID(ids []int) int {
	if len(ids) == 0 {
		return 0
	}
	return ids[0]
}
