// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodbridge/internal/http/handlers"
	"foodbridge/internal/modules/fulfillment"
	"foodbridge/internal/modules/listing"
)

func NewRouter(
	fulfillmentService *fulfillment.Service,
	listingService *listing.Service,
) http.Handler {
	mux := http.NewServeMux()

	listingHandler := handlers.NewListingHandler(listingService)
	mux.HandleFunc("POST /api/listings", listingHandler.Create)
	mux.HandleFunc("GET /api/listings", listingHandler.ListActive)
	mux.HandleFunc("GET /api/listings/{id}", listingHandler.Get)
	mux.HandleFunc("DELETE /api/listings/{id}", listingHandler.Remove)

	orderHandler := handlers.NewFulfillmentHandler(fulfillmentService, fulfillment.KindPurchase)
	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.Get)
	mux.HandleFunc("POST /api/orders/{id}/authorize", orderHandler.Authorize)
	mux.HandleFunc("POST /api/orders/{id}/complete", orderHandler.Complete)
	mux.HandleFunc("POST /api/orders/{id}/fail", orderHandler.Fail)
	mux.HandleFunc("POST /api/orders/{id}/cancel", orderHandler.Cancel)

	donationHandler := handlers.NewFulfillmentHandler(fulfillmentService, fulfillment.KindDonation)
	mux.HandleFunc("POST /api/donations", donationHandler.Create)
	mux.HandleFunc("GET /api/donations/{id}", donationHandler.Get)
	mux.HandleFunc("POST /api/donations/{id}/authorize", donationHandler.Authorize)
	mux.HandleFunc("POST /api/donations/{id}/complete", donationHandler.Complete)
	mux.HandleFunc("POST /api/donations/{id}/fail", donationHandler.Fail)
	mux.HandleFunc("POST /api/donations/{id}/cancel", donationHandler.Cancel)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}
