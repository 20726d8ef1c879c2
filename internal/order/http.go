package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BasketStore/internal/identity"
	"BasketStore/pkg/kit"
)

type Server struct {
	Service *Service
	Log     *zap.Logger
}

// Routes is mounted at /orders behind the identity middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/{orderID}", s.get)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	h, err := s.Service.Completed(r.Context(), u.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, h)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "malformed order id", nil)
		return
	}

	o, err := s.Service.ByID(r.Context(), u.ID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *DataError

	switch {
	case errors.Is(err, ErrUserNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, ErrOrderNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "order not found", nil)
	case errors.Is(err, ErrNotOwner):
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
	case errors.As(err, &de):
		kit.WriteError(w, r, http.StatusInternalServerError, "stored order is corrupt",
			map[string]any{"order_id": de.RecordID})
	default:
		if s.Log != nil {
			s.Log.Error("order operation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
