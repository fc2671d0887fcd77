package assert

import (
	"fmt"
	"sync/atomic"
	"time"
)

var lastErrorMillis atomic.Int64

// newErrorID builds the correlation token tying a user-facing failure
// notice to its monitoring-channel diagnostic. The millisecond component
// is strictly monotonic process-wide, so sequential IDs never collide even
// when issued inside one millisecond.
func newErrorID(userID string) string {
	now := time.Now().UnixMilli()
	for {
		last := lastErrorMillis.Load()
		if now <= last {
			now = last + 1
		}
		if lastErrorMillis.CompareAndSwap(last, now) {
			return fmt.Sprintf("%s.%d", userID, now)
		}
	}
}
