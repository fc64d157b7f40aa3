package notifications

import "time"

// DebounceWindow is the minimum gap between two notified updates of the same record.
const DebounceWindow = 60 * time.Second

// IsRecent reports whether last falls inside the debounce window before now.
// Updates whose previous save is recent belong to the same burst and are not
// notified again.
func IsRecent(last, now time.Time) bool {
	return now.Sub(last) < DebounceWindow
}
