package classifier

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no goroutines leak across the package, the batch
// reclassifier fans out over a worker pool and every worker must be joined.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}
