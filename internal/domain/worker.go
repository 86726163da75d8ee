package domain

import "time"

// Worker represents an enrolled swarm client identity.
//
// Reputation starts at zero, grows by one on every honest commit or
// finalize, and drops by the configured penalty on a size mismatch.
// Once reputation goes negative the worker is disabled for good.
type Worker struct {
	ID            string     `gorm:"type:text;primaryKey" json:"id"`
	IP            string     `gorm:"type:text;not null;index:idx_workers_ip" json:"ip"`
	Reputation    int        `gorm:"not null;default:0" json:"reputation"`
	Disabled      bool       `gorm:"not null;default:false" json:"disabled"`
	CurrentBatch  string     `gorm:"type:text" json:"current_batch,omitempty"`
	LastCommitted *time.Time `json:"last_committed,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Worker.
func (Worker) TableName() string {
	return "workers"
}

// HoldsBatch reports whether the worker is currently bound to a batch.
func (w *Worker) HoldsBatch() bool {
	return w.CurrentBatch != ""
}
