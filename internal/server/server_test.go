package server_test

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Tyrowin/relaychat/internal/server"
	"github.com/Tyrowin/relaychat/internal/testhelpers"
)

// TestServerRunStops verifies that Run returns once its context is cancelled
// and that the server's hub reports completion.
func TestServerRunStops(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv := server.New(testConfig(), logrus.NewEntry(logger))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(testhelpers.DefaultTimeout):
		t.Fatal("Run did not return after cancellation")
	}

	select {
	case <-srv.Hub().Done():
	default:
		t.Error("Expected hub to be done after Run returned")
	}
}

// TestServerRunBindFailure verifies that an address already in use is reported.
func TestServerRunBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer func() { _ = ln.Close() }()

	cfg := testConfig()
	cfg.Address = ln.Addr().String()
	logger, _ := test.NewNullLogger()

	err = server.New(cfg, logrus.NewEntry(logger)).Run(context.Background())
	if err == nil {
		t.Fatal("Expected Run to fail on an address in use")
	}
	if !strings.Contains(err.Error(), "listen tcp4") {
		t.Errorf("Expected listen error, got %v", err)
	}
}
