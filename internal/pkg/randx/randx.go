/*
Package randx provides identifier generation for records, connections and streams.

Record ids follow the stub contract of the public API: decimal millisecond
timestamps. A process-wide counter keeps them strictly increasing so that two
records created within the same millisecond never collide.
*/
package randx

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var lastTimestampID atomic.Int64

// TimestampID returns a decimal Unix-millisecond timestamp, bumped by one when
// the clock has not advanced past the previously issued value.
func TimestampID() string {
	return strconv.FormatInt(nextTimestamp(time.Now().UnixMilli()), 10)
}

func nextTimestamp(now int64) int64 {
	for {
		last := lastTimestampID.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if lastTimestampID.CompareAndSwap(last, next) {
			return next
		}
	}
}

// ConnectionID generates a UUID v4 identifying a single WebSocket connection.
func ConnectionID() string {
	return uuid.New().String()
}

// StreamID generates a UUID v4 identifying one assistant response stream.
func StreamID() string {
	return uuid.New().String()
}
