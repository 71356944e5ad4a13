package health

import (
	"testing"

	"go.uber.org/goleak"
)

// Readiness checks run in goroutines; all of them must be joined.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
