package scheduler

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures a closed OpenFile/cancelled build task never leaves its
// stop-flag-watching goroutine running past the test that triggered it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
