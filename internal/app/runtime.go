package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// TestModeEnv makes the entrypoints return before dialing any dependency.
const TestModeEnv = "TEKSTIL_TEST_MODE"

var (
	testModeOnce sync.Once
	testMode     atomic.Bool
)

// InTestMode reports whether TEKSTIL_TEST_MODE holds a true value.
func InTestMode() bool {
	testModeOnce.Do(RefreshTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the flag after the environment changes.
func RefreshTestMode() {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	testMode.Store(err == nil && on)
}
