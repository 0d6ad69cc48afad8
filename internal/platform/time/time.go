// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to a copy of t, nil when t is zero
// nullable timestamp columns such as completed_at use it
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
