package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meterchain/core/errors"
	"meterchain/core/state"
	"meterchain/core/types"
)

type submitResponse struct {
	TxID uint64 `json:"txId"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Router builds the daemon's HTTP surface.
func (n *Node) Router(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Post("/v1/tx", n.handleSubmit)
	r.Get("/v1/accounts/{address}", n.handleAccount)
	r.Get("/v1/meters/{owner}/{service}", n.handleMeter)
	r.Get("/v1/meters/{owner}/{service}/window", n.handleWindow)
	r.Get("/v1/settlements/{owner}/{service}/{window}", n.handleSettlement)
	r.Post("/v1/settlements/draft", n.handleSettlementDraft)
	r.Post("/v1/disputes/resolution", n.handleResolutionDraft)
	r.Get("/v1/policies/{owner}/{service}", n.handlePolicy)

	return r
}

func (n *Node) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if n.limiter != nil && !n.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, errors.New(errors.CodeInternal, "submission rate exceeded"))
		return
	}
	var tx types.Tx
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.CodeInvalidTransaction, "decode transaction", err))
		return
	}
	id, err := n.Submit(&tx)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{TxID: id})
}

func (n *Node) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	var acct types.Account
	n.View(func(st *state.State, _ uint64) {
		acct = st.Account(addr)
	})
	writeJSON(w, http.StatusOK, acct)
}

func (n *Node) handleMeter(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	service := chi.URLParam(r, "service")
	var (
		meter types.Meter
		ok    bool
	)
	n.View(func(st *state.State, _ uint64) {
		var m *types.Meter
		if m, ok = st.Meter(owner, service); ok {
			meter = *m
		}
	})
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.CodeInvalidTransaction, "meter not found"))
		return
	}
	writeJSON(w, http.StatusOK, meter)
}

func (n *Node) handleWindow(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	service := chi.URLParam(r, "service")
	writeJSON(w, http.StatusOK, n.WindowTotals(owner, service))
}

func (n *Node) handleSettlement(w http.ResponseWriter, r *http.Request) {
	key := types.SettlementKey(chi.URLParam(r, "owner"), chi.URLParam(r, "service"), chi.URLParam(r, "window"))
	var (
		s  types.Settlement
		ok bool
	)
	n.View(func(st *state.State, _ uint64) {
		var found *types.Settlement
		if found, ok = st.Settlement(key); ok {
			s = *found
		}
	})
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.CodeSettlementNotFound, "settlement not found"))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type settlementDraftRequest struct {
	Owner     string `json:"owner"`
	ServiceID string `json:"serviceId"`
	FromTxID  uint64 `json:"fromTxId"`
	ToTxID    uint64 `json:"toTxId"`
}

// handleSettlementDraft derives a ready-to-sign ProposeSettlement payload from
// the durable log. The caller signs and submits it like any other transaction.
func (n *Node) handleSettlementDraft(w http.ResponseWriter, r *http.Request) {
	var req settlementDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.CodeInvalidTransaction, "decode draft request", err))
		return
	}
	payload, err := n.svc.BuildWindow(req.Owner, req.ServiceID, req.FromTxID, req.ToTxID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type resolutionDraftRequest struct {
	Owner     string `json:"owner"`
	ServiceID string `json:"serviceId"`
	WindowID  string `json:"windowId"`
	Verdict   string `json:"verdict"`
}

// handleResolutionDraft replays a disputed settlement's pinned window and
// assembles the ResolveDispute payload with its evidence bundle.
func (n *Node) handleResolutionDraft(w http.ResponseWriter, r *http.Request) {
	var req resolutionDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.CodeInvalidTransaction, "decode resolution request", err))
		return
	}
	key := types.SettlementKey(req.Owner, req.ServiceID, req.WindowID)
	var (
		s  types.Settlement
		ok bool
	)
	n.View(func(st *state.State, _ uint64) {
		var found *types.Settlement
		if found, ok = st.Settlement(key); ok {
			s = *found
		}
	})
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.CodeSettlementNotFound, "settlement not found"))
		return
	}
	payload, err := n.svc.ResolutionPayload(&s, types.DisputeVerdict(req.Verdict))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (n *Node) handlePolicy(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	service := chi.URLParam(r, "service")
	var (
		pv *types.PolicyVersion
		ok bool
	)
	n.View(func(st *state.State, nextTxID uint64) {
		pv, ok = st.ResolvePolicy(owner, service, nextTxID)
	})
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.CodePolicyNotFound, "no policy in scope"))
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeSignatureVerificationFailed:
		return http.StatusUnauthorized
	case errors.CodeStorage, errors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Code: errors.CodeOf(err), Message: err.Error()}
	writeJSON(w, status, resp)
}
