package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	"github.com/gethsun1/solmarket-backend/pkg/types"
)

func TestReportEscrowTransitionRequiresTxRef(t *testing.T) {
	called := false
	fn := func(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
		called = true
		return nil, nil
	}
	handler := ReportEscrowTransition(fn, config.SolanaConfig{Cluster: "devnet"}, nil)

	req := withURLParam(
		httptest.NewRequest(http.MethodPost, "/api/v1/orders/42/escrow/fund", strings.NewReader(`{}`)),
		"orderId", "42",
	)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if called {
		t.Fatal("transition must not run without a tx ref")
	}
}

func TestReportEscrowTransitionMapsStateConflict(t *testing.T) {
	fn := func(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "escrow is refunded; cannot fund")
	}
	handler := ReportEscrowTransition(fn, config.SolanaConfig{Cluster: "devnet"}, nil)

	req := withURLParam(
		httptest.NewRequest(http.MethodPost, "/api/v1/orders/42/escrow/fund", strings.NewReader(`{"tx_ref":"sig"}`)),
		"orderId", "42",
	)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", w.Code, w.Body.String())
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestReportEscrowTransitionBuildsExplorerURLs(t *testing.T) {
	fundTx := "5ge7Sig"
	fn := func(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
		return &models.Escrow{
			OrderID: orderID,
			Address: "3fTR8GGL2mniGyHtd3Qy2KDVhZ9LHbW59rCc7A3RtBWk",
			Status:  enums.EscrowStatusFunded,
			FundTx:  &fundTx,
		}, nil
	}
	handler := ReportEscrowTransition(fn, config.SolanaConfig{Cluster: "devnet"}, nil)

	req := withURLParam(
		httptest.NewRequest(http.MethodPost, "/api/v1/orders/42/escrow/fund", strings.NewReader(`{"tx_ref":"5ge7Sig"}`)),
		"orderId", "42",
	)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			AccountExplorerURL string `json:"account_explorer_url"`
			FundExplorerURL    string `json:"fund_explorer_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(envelope.Data.AccountExplorerURL, "3fTR8GGL2mniGyHtd3Qy2KDVhZ9LHbW59rCc7A3RtBWk") {
		t.Fatalf("unexpected account url %q", envelope.Data.AccountExplorerURL)
	}
	if !strings.Contains(envelope.Data.FundExplorerURL, "cluster=devnet") {
		t.Fatalf("expected devnet cluster param, got %q", envelope.Data.FundExplorerURL)
	}
}
