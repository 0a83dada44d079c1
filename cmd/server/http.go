package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lattice-markets/limitbook/pkg/core"
	otelx "github.com/lattice-markets/limitbook/pkg/otel"
)

// newMux builds the JSON HTTP surface over a traced book: order
// submission/cancellation/modification and a depth snapshot read.
func newMux(book *otelx.TracedBook, logger zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/depth", depthHandler(book, logger))
	mux.HandleFunc("/orders", ordersHandler(book, logger))
	mux.HandleFunc("/orders/", orderHandler(book, logger))
	return mux
}

type newOrderRequest struct {
	ID       uint64 `json:"id"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type modifyOrderRequest struct {
	Side     string `json:"side"`
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type tradeInfoResponse struct {
	OrderID  uint64 `json:"order_id"`
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type tradeResponse struct {
	Buy  tradeInfoResponse `json:"buy"`
	Sell tradeInfoResponse `json:"sell"`
}

func parseSide(s string) (core.Side, bool) {
	switch strings.ToUpper(s) {
	case "BUY":
		return core.Buy, true
	case "SELL":
		return core.Sell, true
	default:
		return 0, false
	}
}

func parseOrderType(s string) (core.OrderType, bool) {
	switch strings.ToUpper(s) {
	case "GTC", "GOODTILLCANCEL":
		return core.GoodTillCancel, true
	case "FAK", "FILLANDKILL":
		return core.FillAndKill, true
	case "FOK", "FILLORKILL":
		return core.FillOrKill, true
	case "GFD", "GOODFORDAY":
		return core.GoodForDay, true
	case "MARKET":
		return core.Market, true
	default:
		return 0, false
	}
}

func toTradeResponses(trades core.Trades) []tradeResponse {
	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeResponse{
			Buy: tradeInfoResponse{
				OrderID:  uint64(t.Buy.OrderID),
				Price:    uint64(t.Buy.Price),
				Quantity: uint64(t.Buy.Quantity),
			},
			Sell: tradeInfoResponse{
				OrderID:  uint64(t.Sell.OrderID),
				Price:    uint64(t.Sell.Price),
				Quantity: uint64(t.Sell.Quantity),
			},
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func ordersHandler(book *otelx.TracedBook, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req newOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		side, ok := parseSide(req.Side)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid side")
			return
		}
		orderType, ok := parseOrderType(req.Type)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid order type")
			return
		}

		order, err := core.NewOrder(core.OrderId(req.ID), side, orderType, core.Price(req.Price), core.Quantity(req.Quantity))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		trades := book.AddOrder(r.Context(), order)
		logger.Debug().Uint64("order_id", req.ID).Int("trades", len(trades)).Msg("order accepted")
		writeJSON(w, http.StatusOK, map[string]any{"trades": toTradeResponses(trades)})
	}
}

func orderHandler(book *otelx.TracedBook, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimPrefix(r.URL.Path, "/orders/")
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		switch r.Method {
		case http.MethodDelete:
			book.CancelOrder(r.Context(), core.OrderId(id))
			w.WriteHeader(http.StatusNoContent)

		case http.MethodPut:
			var req modifyOrderRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			side, ok := parseSide(req.Side)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid side")
				return
			}
			mod := core.NewOrderModify(core.OrderId(id), side, core.Price(req.Price), core.Quantity(req.Quantity))
			trades := book.ModifyOrder(r.Context(), mod)
			writeJSON(w, http.StatusOK, map[string]any{"trades": toTradeResponses(trades)})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func depthHandler(book *otelx.TracedBook, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		strategy := core.Sequential
		switch r.URL.Query().Get("strategy") {
		case "coarse_parallel":
			strategy = core.CoarseParallel
		case "per_level_pooled":
			strategy = core.PerLevelPooled
		case "batched_pooled":
			strategy = core.BatchedPooled
		}

		depth, err := book.Snapshot(strategy)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, depth)
	}
}
