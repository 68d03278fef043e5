package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gethsun1/solmarket-backend/api/responses"
	"github.com/gethsun1/solmarket-backend/api/validators"
	rafflesvc "github.com/gethsun1/solmarket-backend/internal/raffles"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
	pkgsolana "github.com/gethsun1/solmarket-backend/pkg/solana"
)

type createRaffleRequest struct {
	MerchantID  int64           `json:"merchant_id" validate:"required,min=1"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description *string         `json:"description,omitempty"`
	TicketPrice decimal.Decimal `json:"ticket_price"`
	MaxSlots    int             `json:"max_slots" validate:"required,min=1"`
	EndTime     time.Time       `json:"end_time" validate:"required"`
}

func CreateRaffle(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}

		var payload createRaffleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raffle, err := svc.Create(r.Context(), rafflesvc.CreateRaffleInput{
			MerchantID:  payload.MerchantID,
			Title:       validators.SanitizeString(payload.Title, 200),
			Description: payload.Description,
			TicketPrice: payload.TicketPrice,
			MaxSlots:    payload.MaxSlots,
			EndTime:     payload.EndTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, raffle)
	}
}

func ListRaffles(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
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

		var status *enums.RaffleStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed := enums.RaffleStatus(raw)
			if !parsed.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown raffle status"))
				return
			}
			status = &parsed
		}

		raffles, err := svc.List(r.Context(), status, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, raffles)
	}
}

func GetRaffle(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "raffleId"), "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raffle, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, raffle)
	}
}

type buyTicketsRequest struct {
	BuyerID     int64  `json:"buyer_id" validate:"required,min=1"`
	TicketCount int    `json:"ticket_count" validate:"required,min=1"`
	TxRef       string `json:"tx_ref" validate:"required,max=128"`
}

type raffleEntryView struct {
	Entry         *models.RaffleEntry `json:"entry"`
	Raffle        *models.Raffle      `json:"raffle,omitempty"`
	TxExplorerURL string              `json:"explorer_url,omitempty"`
}

// BuyRaffleTickets sells tickets against the remaining slots.
func BuyRaffleTickets(svc rafflesvc.Service, cfg config.SolanaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}

		raffleID, err := validators.ParsePathID(chi.URLParam(r, "raffleId"), "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload buyTicketsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.BuyTickets(r.Context(), rafflesvc.BuyTicketsInput{
			RaffleID:    raffleID,
			BuyerID:     payload.BuyerID,
			TicketCount: payload.TicketCount,
			TxRef:       validators.SanitizeString(payload.TxRef, 128),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Best effort reload so the response carries the new sold count.
		raffle, _ := svc.Get(r.Context(), raffleID)

		responses.WriteSuccessStatus(w, http.StatusCreated, raffleEntryView{
			Entry:         entry,
			Raffle:        raffle,
			TxExplorerURL: pkgsolana.ExplorerTxURL(cfg.Cluster, entry.TxRef),
		})
	}
}

// DrawRaffleWinner picks a winner weighted by ticket count once the raffle is
// over or sold out.
func DrawRaffleWinner(svc rafflesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "raffle service unavailable"))
			return
		}

		raffleID, err := validators.ParsePathID(chi.URLParam(r, "raffleId"), "raffleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raffle, err := svc.DrawWinner(r.Context(), raffleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, raffle)
	}
}
