package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("GREENLEDGER_TEST_MODE", "1")
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
		if os.Getenv("EXPORT_DIR") == "" {
			_ = os.Setenv("EXPORT_DIR", os.TempDir())
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain switches the application into test mode before tests run.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
