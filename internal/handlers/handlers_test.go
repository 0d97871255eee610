package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/benx421/payment-gateway/checkout/internal/handlers/mocks"
	svcmocks "github.com/benx421/payment-gateway/checkout/internal/service/mocks"
	"github.com/go-chi/chi/v5"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testDeps struct {
	initiator  *mocks.MockInitiator
	reconciler *mocks.MockReconciler
	reader     *mocks.MockTransactionReader
	health     *svcmocks.MockHealthChecker
}

// newTestRouter mounts a Handler backed by fresh mocks on a chi router
func newTestRouter(t *testing.T) (http.Handler, testDeps) {
	t.Helper()

	deps := testDeps{
		initiator:  mocks.NewMockInitiator(t),
		reconciler: mocks.NewMockReconciler(t),
		reader:     mocks.NewMockTransactionReader(t),
		health:     svcmocks.NewMockHealthChecker(t),
	}

	h := NewHandler(deps.initiator, deps.reconciler, deps.reader, deps.health, testLogger())
	r := chi.NewRouter()
	h.Register(r)

	return r, deps
}
