// Package testing switches the process into test mode when blank-imported
// from a _test.go file, so wiring code never dials real dependencies.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var setupOnce sync.Once

// defaults are applied only to variables the caller has not set.
var defaults = map[string]string{
	"GOTENBERG_URL": "http://127.0.0.1:0",
	"REDIS_ADDR":    "127.0.0.1:0",
}

// Setup forces TEKSTIL_TEST_MODE=1 and fills unreachable endpoints.
func Setup() {
	setupOnce.Do(func() {
		_ = os.Setenv("TEKSTIL_TEST_MODE", "1")
		for key, value := range defaults {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	Setup()
}

// TestMain can be called from a package TestMain to run with test mode set.
func TestMain(m *stdtesting.M) {
	Setup()
	os.Exit(m.Run())
}
