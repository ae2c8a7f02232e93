package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"tekir/dispatch"
	"tekir/search"

	"go.uber.org/zap"
)

// Resolver returns the results of query from the named source.
type Resolver interface {
	Resolve(ctx context.Context, source, query string) ([]search.Result, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// SearchHandler serves GET /api?q=<query>&source=<duck|brave|google>.
func SearchHandler(resolver Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := RequestLogger(r.Context(), logger)

		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
			return
		}

		query := r.URL.Query().Get("q")
		source := r.URL.Query().Get("source")

		results, err := resolver.Resolve(r.Context(), source, query)
		if errors.Is(err, dispatch.ErrInvalidSource) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid source"})
			return
		}
		if err != nil {
			log.Error("search request failed", zap.String("source", source), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			return
		}
		if results == nil {
			results = []search.Result{}
		}

		writeJSON(w, http.StatusOK, results)
	}
}

// StatusHandler answers the root path so load balancers can see the service.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": "Tekir search API active!"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
