// README: Listing handlers for create/browse/get/remove.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"foodbridge/internal/modules/listing"
	"foodbridge/internal/types"
)

type ListingHandler struct {
	svc *listing.Service
}

func NewListingHandler(svc *listing.Service) *ListingHandler {
	return &ListingHandler{svc: svc}
}

type createListingReq struct {
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	FoodType       string       `json:"food_type"`
	CookedAt       time.Time    `json:"cooked_at"`
	PickupStart    time.Time    `json:"pickup_start"`
	PickupEnd      *time.Time   `json:"pickup_end,omitempty"`
	PickupLocation string       `json:"pickup_location"`
	IsDonation     bool         `json:"is_donation"`
	BasePrice      *types.Money `json:"base_price,omitempty"`
	ImageRef       string       `json:"image_ref"`
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusBadRequest, "missing actor id")
		return
	}
	var req createListingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.svc.Create(r.Context(), listing.CreateCommand{
		OwnerID:        actor,
		Title:          req.Title,
		Description:    req.Description,
		FoodType:       req.FoodType,
		CookedAt:       req.CookedAt,
		PickupStart:    req.PickupStart,
		PickupEnd:      req.PickupEnd,
		PickupLocation: req.PickupLocation,
		IsDonation:     req.IsDonation,
		BasePrice:      req.BasePrice,
		ImageRef:       req.ImageRef,
	})
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "status": listing.StatusActive})
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing listing id")
		return
	}
	v, err := h.svc.Get(r.Context(), types.ID(id))
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingBody(v))
}

func (h *ListingHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListActive(r.Context())
	if err != nil {
		writeListingError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(views))
	for _, v := range views {
		out = append(out, listingBody(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": out})
}

func (h *ListingHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	id := r.PathValue("id")
	if actor == "" || id == "" {
		writeError(w, http.StatusBadRequest, "missing actor or id")
		return
	}
	if err := h.svc.Remove(r.Context(), actor, types.ID(id)); err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": listing.StatusRemoved})
}

func listingBody(v *listing.View) map[string]any {
	l := v.Listing
	body := map[string]any{
		"id":              l.ID,
		"owner_id":        l.OwnerID,
		"title":           l.Title,
		"description":     l.Description,
		"food_type":       l.FoodType,
		"cooked_at":       l.CookedAt,
		"pickup_start":    l.PickupStart,
		"pickup_location": l.PickupLocation,
		"is_donation":     l.IsDonation,
		"status":          v.Status,
	}
	if l.PickupEnd != nil {
		body["pickup_end"] = *l.PickupEnd
	}
	if v.CurrentPrice != nil {
		body["current_price"] = v.CurrentPrice
	}
	if l.ImageRef != "" {
		body["image_ref"] = l.ImageRef
	}
	return body
}
