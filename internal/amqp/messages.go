package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Applications a record event can originate from.
const (
	AppExpense = "pengeluaran"
	AppStudy   = "belajar"
)

// Actions carried by a record event.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// RecordEvent announces that a record was added or removed. It carries only
// identifiers; consumers read the current state from the database.
type RecordEvent struct {
	EventID   string    `json:"event_id"`
	App       string    `json:"app"`
	Action    string    `json:"action"`
	RecordID  int64     `json:"record_id"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(app, action string, recordID int64, date string) *RecordEvent {
	return &RecordEvent{
		EventID:   uuid.NewString(),
		App:       app,
		Action:    action,
		RecordID:  recordID,
		Date:      date,
		Timestamp: time.Now(),
	}
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and checks an event body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.App != AppExpense && e.App != AppStudy {
		return nil, fmt.Errorf("unknown app %q", e.App)
	}
	return &e, nil
}
