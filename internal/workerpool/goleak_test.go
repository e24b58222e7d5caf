package workerpool

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutine a submitted task spawns outlives the test
// that started it, since Pool's whole contract rests on bounded worker
// lifetimes.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
