// README: Fulfillment handlers; one instance serves orders, another donations.
package handlers

import (
	"encoding/json"
	"net/http"

	"foodbridge/internal/modules/fulfillment"
	"foodbridge/internal/types"
)

// The caller's identity comes from the gateway upstream.
const actorHeader = "X-Actor-ID"

type FulfillmentHandler struct {
	svc  *fulfillment.Service
	kind fulfillment.Kind
}

func NewFulfillmentHandler(svc *fulfillment.Service, kind fulfillment.Kind) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc, kind: kind}
}

type createFulfillmentReq struct {
	ListingID       string       `json:"listing_id"`
	DeliveryType    string       `json:"delivery_type"`
	DeliveryAddress string       `json:"delivery_address"`
	ProposedPrice   *types.Money `json:"proposed_price,omitempty"`
	Notes           string       `json:"notes"`
}

func (h *FulfillmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusBadRequest, "missing actor id")
		return
	}
	var req createFulfillmentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ListingID == "" || req.DeliveryType == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}
	res, err := h.svc.Create(r.Context(), fulfillment.CreateCommand{
		Kind:            h.kind,
		ActorID:         actor,
		ListingID:       types.ID(req.ListingID),
		DeliveryType:    fulfillment.DeliveryType(req.DeliveryType),
		DeliveryAddress: req.DeliveryAddress,
		ProposedPrice:   req.ProposedPrice,
		Notes:           req.Notes,
	})
	if err != nil {
		writeFulfillmentError(w, err)
		return
	}
	body := map[string]any{
		"id":          res.ID,
		"status":      res.Status,
		"pickup_code": res.PickupCode,
	}
	if res.FinalPrice != nil {
		body["final_price"] = res.FinalPrice
	}
	if res.DeliveryActorID != nil {
		body["delivery_actor_id"] = *res.DeliveryActorID
	}
	writeJSON(w, http.StatusCreated, body)
}

func (h *FulfillmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	f, err := h.svc.Get(r.Context(), types.ID(id))
	if err != nil {
		writeFulfillmentError(w, err)
		return
	}
	if f.Kind != h.kind {
		writeFulfillmentError(w, fulfillment.ErrNotFound)
		return
	}
	body := map[string]any{
		"id":            f.ID,
		"kind":          f.Kind,
		"listing_id":    f.ListingID,
		"status":        f.Status,
		"delivery_type": f.DeliveryType,
		"created_at":    f.CreatedAt,
	}
	if f.FinalPrice != nil {
		body["final_price"] = f.FinalPrice
		body["payment_status"] = f.PaymentStatus
	}
	if d, err := h.svc.GetDelivery(r.Context(), f.ID); err == nil && d != nil {
		body["delivery"] = map[string]any{
			"actor_id":       d.ActorID,
			"personnel_type": d.PersonnelType,
			"status":         d.Status,
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type authorizeReq struct {
	Code string `json:"code"`
}

func (h *FulfillmentHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	id := r.PathValue("id")
	if actor == "" || id == "" {
		writeError(w, http.StatusBadRequest, "missing actor or id")
		return
	}
	var req authorizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.svc.AuthorizePickup(r.Context(), fulfillment.AuthorizeCommand{
		ActorID:       actor,
		FulfillmentID: types.ID(id),
		Code:          req.Code,
	})
	if err != nil {
		writeFulfillmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

func (h *FulfillmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	id := r.PathValue("id")
	if actor == "" || id == "" {
		writeError(w, http.StatusBadRequest, "missing actor or id")
		return
	}
	res, err := h.svc.CompleteDelivery(r.Context(), fulfillment.CompleteCommand{
		ActorID:       actor,
		FulfillmentID: types.ID(id),
	})
	if err != nil {
		writeFulfillmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

type reasonReq struct {
	Reason string `json:"reason"`
}

func (h *FulfillmentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	id := r.PathValue("id")
	if actor == "" || id == "" {
		writeError(w, http.StatusBadRequest, "missing actor or id")
		return
	}
	var req reasonReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.svc.ReportDeliveryFailure(r.Context(), fulfillment.FailCommand{
		ActorID:       actor,
		FulfillmentID: types.ID(id),
		Reason:        req.Reason,
	})
	if err != nil {
		writeFulfillmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

func (h *FulfillmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	id := r.PathValue("id")
	if actor == "" || id == "" {
		writeError(w, http.StatusBadRequest, "missing actor or id")
		return
	}
	var req reasonReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}
	res, err := h.svc.Cancel(r.Context(), fulfillment.CancelCommand{
		ActorID:       actor,
		FulfillmentID: types.ID(id),
		Reason:        req.Reason,
	})
	if err != nil {
		writeFulfillmentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody(res))
}

func transitionBody(res *fulfillment.TransitionResult) map[string]any {
	body := map[string]any{"id": res.ID, "status": res.Status}
	if res.PaymentStatus != "" {
		body["payment_status"] = res.PaymentStatus
	}
	if res.DeliveryStatus != nil {
		body["delivery_status"] = *res.DeliveryStatus
	}
	return body
}

func actorID(r *http.Request) types.ID {
	return types.ID(r.Header.Get(actorHeader))
}
