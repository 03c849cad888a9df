package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Millis returns the current wall-clock time in milliseconds, the unit used
// for task start stamps.
func Millis() int64 { return NowFunc().UnixMilli() }
