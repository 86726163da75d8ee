package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Batch is a fixed-size partition of the target video corpus, the unit of
// work assignment and upload.
//
// ContentSize is set exactly when Finished is true; its value is the byte
// length of the canonical archive object and serves as the verification
// oracle for every later worker that re-uploads the same batch. Version
// counts accepted trusted overwrites and never decreases.
type Batch struct {
	ID          string      `gorm:"type:text;primaryKey" json:"id"`
	StartCtid   string      `gorm:"type:text" json:"start_ctid"`
	EndCtid     string      `gorm:"type:text" json:"end_ctid"`
	Finished    bool        `gorm:"not null;default:false;index:idx_batches_finished" json:"finished"`
	ContentSize *int64      `json:"content_size,omitempty"`
	Videos      StringArray `gorm:"type:text" json:"videos"`
	Version     int         `gorm:"not null;default:0" json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Batch.
func (Batch) TableName() string {
	return "batches"
}

// ObjectKey returns the canonical object-store key for the batch archive.
func (b *Batch) ObjectKey() string {
	return b.ID + ".json.gz"
}

// VersionedObjectKey returns the object-store key for a trusted re-upload
// at the given version. Versioned keys never collide with the canonical key.
func (b *Batch) VersionedObjectKey(version int) string {
	return fmt.Sprintf("%s.json.gz-%d", b.ID, version)
}
