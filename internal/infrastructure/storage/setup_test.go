package storage

import (
	"io"
	"os"
	"testing"

	"isekai-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithOutput(io.Discard)
	os.Exit(m.Run())
}
