package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gethsun1/solmarket-backend/api/responses"
	"github.com/gethsun1/solmarket-backend/api/validators"
	escrowsvc "github.com/gethsun1/solmarket-backend/internal/escrow"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
	pkgsolana "github.com/gethsun1/solmarket-backend/pkg/solana"
)

// DeriveEscrowAddress computes the escrow account for an order without
// recording anything. Clients call this before building the initialize
// transaction.
func DeriveEscrowAddress(svc escrowsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		info, err := svc.DeriveAddress(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, info)
	}
}

func GetEscrow(svc escrowsvc.Service, cfg config.SolanaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		escrow, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, escrowResponse(escrow, cfg.Cluster))
	}
}

type escrowTxRequest struct {
	TxRef string `json:"tx_ref" validate:"required,max=128"`
}

type escrowTransition func(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error)

// ReportEscrowTransition handles the client-reported lifecycle endpoints
// (init, fund, release, refund). The submitted transaction is advisory; the
// service enforces the transition matrix but never checks the ledger.
func ReportEscrowTransition(fn escrowTransition, cfg config.SolanaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fn == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload escrowTxRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}

		escrow, err := fn(ctx, orderID, validators.SanitizeString(payload.TxRef, 128))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, escrowResponse(escrow, cfg.Cluster))
	}
}

type escrowView struct {
	Escrow             *models.Escrow `json:"escrow"`
	AccountExplorerURL string         `json:"account_explorer_url,omitempty"`
	InitExplorerURL    string         `json:"init_explorer_url,omitempty"`
	FundExplorerURL    string         `json:"fund_explorer_url,omitempty"`
	SettleExplorerURL  string         `json:"settle_explorer_url,omitempty"`
}

func escrowResponse(escrow *models.Escrow, cluster string) escrowView {
	view := escrowView{Escrow: escrow}
	if escrow == nil {
		return view
	}
	view.AccountExplorerURL = pkgsolana.ExplorerAccountURL(cluster, escrow.Address)
	if escrow.InitTx != nil {
		view.InitExplorerURL = pkgsolana.ExplorerTxURL(cluster, *escrow.InitTx)
	}
	if escrow.FundTx != nil {
		view.FundExplorerURL = pkgsolana.ExplorerTxURL(cluster, *escrow.FundTx)
	}
	if escrow.SettleTx != nil {
		view.SettleExplorerURL = pkgsolana.ExplorerTxURL(cluster, *escrow.SettleTx)
	}
	return view
}
