package types

import (
	"strconv"
	"time"
)

// NewSessionID returns an id of the form session_<unix ms>.
func NewSessionID(t time.Time) string {
	return "session_" + strconv.FormatInt(t.UnixMilli(), 10)
}
