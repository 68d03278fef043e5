package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gethsun1/solmarket-backend/api/responses"
	"github.com/gethsun1/solmarket-backend/api/validators"
	auctionsvc "github.com/gethsun1/solmarket-backend/internal/auctions"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
	pkgsolana "github.com/gethsun1/solmarket-backend/pkg/solana"
)

type createAuctionRequest struct {
	SellerID      int64           `json:"seller_id" validate:"required,min=1"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   *string         `json:"description,omitempty"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	EndTime       time.Time       `json:"end_time" validate:"required"`
}

func CreateAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		var payload createAuctionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auction, err := svc.Create(r.Context(), auctionsvc.CreateAuctionInput{
			SellerID:      payload.SellerID,
			Title:         validators.SanitizeString(payload.Title, 200),
			Description:   payload.Description,
			StartingPrice: payload.StartingPrice,
			EndTime:       payload.EndTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, auction)
	}
}

func ListAuctions(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.AuctionStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed := enums.AuctionStatus(raw)
			if !parsed.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown auction status"))
				return
			}
			status = &parsed
		}

		auctions, err := svc.List(r.Context(), status, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, auctions)
	}
}

func GetAuction(svc auctionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "auctionId"), "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		auction, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, auction)
	}
}

type placeBidRequest struct {
	BidderID int64           `json:"bidder_id" validate:"required,min=1"`
	Amount   decimal.Decimal `json:"amount"`
	TxRef    string          `json:"tx_ref" validate:"required,max=128"`
}

type bidView struct {
	Bid           *models.AuctionBid `json:"bid"`
	Auction       *models.Auction    `json:"auction,omitempty"`
	TxExplorerURL string             `json:"explorer_url,omitempty"`
}

// PlaceBid records a bid strictly above the current price.
func PlaceBid(svc auctionsvc.Service, cfg config.SolanaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		auctionID, err := validators.ParsePathID(chi.URLParam(r, "auctionId"), "auctionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeBidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.PlaceBid(r.Context(), auctionsvc.PlaceBidInput{
			AuctionID: auctionID,
			BidderID:  payload.BidderID,
			Amount:    payload.Amount,
			TxRef:     validators.SanitizeString(payload.TxRef, 128),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Best effort reload so the response carries the new price/leader.
		auction, _ := svc.Get(r.Context(), auctionID)

		responses.WriteSuccessStatus(w, http.StatusCreated, bidView{
			Bid:           bid,
			Auction:       auction,
			TxExplorerURL: pkgsolana.ExplorerTxURL(cfg.Cluster, bid.TxRef),
		})
	}
}
