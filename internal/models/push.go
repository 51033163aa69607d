package models

import (
	"time"

	"github.com/google/uuid"
)

// Push statuses. There is no retrying state: a failed push stays failed and
// the next scheduled push starts fresh.
const (
	PushStatusSent   = "sent"
	PushStatusFailed = "failed"
)

// PushRecord is the audit row for one notification attempt
type PushRecord struct {
	ID            uuid.UUID `db:"id"             json:"id"`
	Mode          string    `db:"mode"           json:"mode"`    // report mode behind the push
	Channel       string    `db:"channel"        json:"channel"` // webhook channel name
	Signature     string    `db:"signature"      json:"signature"`
	HeadlineCount int       `db:"headline_count" json:"headline_count"`
	Status        string    `db:"status"         json:"status"`
	Error         string    `db:"error_detail"   json:"error,omitempty"`
	PushedAt      time.Time `db:"pushed_at"      json:"pushed_at"`
}
