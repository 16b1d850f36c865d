package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/dapp/business/web/errs"
)

func TestTrusted(t *testing.T) {
	cause := errors.New("wallet not connected")
	err := fmt.Errorf("handler: %w", errs.NewTrustedKind(cause, http.StatusServiceUnavailable, "connection"))

	if !errs.IsTrusted(err) {
		t.Fatal("Should find the trusted error through wrapping.")
	}

	re := errs.GetTrusted(err)
	if re.Status != http.StatusServiceUnavailable || re.Kind != "connection" {
		t.Fatalf("Should keep the status and kind: %d %s", re.Status, re.Kind)
	}

	if !errors.Is(err, cause) {
		t.Fatal("Should unwrap to the cause.")
	}

	if errs.IsTrusted(cause) || errs.GetTrusted(cause) != nil {
		t.Fatal("Should not treat a plain error as trusted.")
	}
}
