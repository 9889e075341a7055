// Command gateway-mock serves a local stand-in for the SonicPesa payment API.
package main

import (
	"encoding/json"
	"log"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"

	"checkout-service/internal/payload"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const contentType = "application/json"

var feeRate = decimal.NewFromFloat(0.01)

type ErrorResponse struct {
	Error string `json:"error"`
}

type gateway struct {
	token        string
	pendingPolls int
	reject       bool
	failRate     float64

	mu    sync.Mutex
	polls map[string]int
}

func main() {
	g := &gateway{polls: make(map[string]int)}
	var addr string

	cmd := &cobra.Command{
		Use:   "gateway-mock",
		Short: "Local fake of the payment gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/payment/create", g.createHandler)
			mux.HandleFunc("POST /api/payment/status", g.statusHandler)

			log.Printf("Gateway mock listening on %s", addr)
			return http.ListenAndServe(addr, loggingMiddleware(countMiddleware(g.auth(mux))))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8085", "Listen address")
	cmd.Flags().StringVar(&g.token, "token", "", "Required bearer token (empty accepts any)")
	cmd.Flags().IntVar(&g.pendingPolls, "pending-polls", 2, "Status calls answered with pending before completed")
	cmd.Flags().BoolVar(&g.reject, "reject", false, "Answer every create request with success=false")
	cmd.Flags().Float64Var(&g.failRate, "fail-rate", 0, "Share of status calls answered with 500")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func (g *gateway) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if g.token != "" && token != g.token {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *gateway) createHandler(w http.ResponseWriter, r *http.Request) {
	var req payload.CreatePayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}

	if g.reject || req.Amount <= 0 {
		message := "payment could not be initiated"
		writeJSON(w, http.StatusOK, payload.PaymentResult{Success: false, Message: &message})
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	fee := amount.Mul(feeRate).Round(2)
	data := &payload.PaymentData{
		TransactionID: uuid.New().String(),
		OrderID:       uuid.New().String(),
		Amount:        amount,
		Fee:           fee,
		NetAmount:     amount.Sub(fee),
		Status:        "pending",
	}

	g.mu.Lock()
	g.polls[data.OrderID] = 0
	g.mu.Unlock()

	writeJSON(w, http.StatusOK, payload.PaymentResult{Success: true, Data: data})
}

func (g *gateway) statusHandler(w http.ResponseWriter, r *http.Request) {
	var req payload.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}

	if rand.Float64() < g.failRate {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return
	}

	g.mu.Lock()
	polls, ok := g.polls[req.OrderID]
	if ok {
		polls++
		g.polls[req.OrderID] = polls
	}
	g.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusOK, payload.StatusResult{})
		return
	}

	status := "pending"
	if polls > g.pendingPolls {
		status = "completed"
	}
	writeJSON(w, http.StatusOK, payload.StatusResult{Data: &payload.StatusData{Status: status}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
