package basket

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BasketStore/internal/identity"
	"BasketStore/pkg/kit"
)

const maxItemBody = 1 << 20

type Server struct {
	Service *Service
	Log     *zap.Logger
}

// Routes is mounted at /basket by the app router; the identity middleware
// has already resolved the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.get)
	r.Delete("/", s.clear)
	r.Post("/", s.checkout)

	r.Post("/{productId}", s.add)
	r.Delete("/{productId}", s.remove)
	r.Patch("/{productId}", s.patch)

	return r
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	b, err := s.Service.Get(r.Context(), u.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	if _, err := s.Service.Clear(r.Context(), u.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	placed, err := s.Service.Checkout(r.Context(), u.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/orders/%d", placed.ID))
	kit.WriteJSON(w, http.StatusCreated, placed)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	it, ok := s.decodeItem(w, r)
	if !ok {
		return
	}

	b, err := s.Service.Add(r.Context(), u.ID, it)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, b)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	productID := chi.URLParam(r, "productId")
	if !ProductIDPattern.MatchString(productID) {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid productId format", nil)
		return
	}

	b, err := s.Service.Remove(r.Context(), u.ID, productID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	it, ok := s.decodeItem(w, r)
	if !ok {
		return
	}

	b, err := s.Service.Patch(r.Context(), u.ID, chi.URLParam(r, "productId"), it)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

// decodeItem parses, validates and cross-checks an item body against the
// {productId} path segment. A false return means the response was written.
func (s *Server) decodeItem(w http.ResponseWriter, r *http.Request) (Item, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxItemBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var it Item
	if err := dec.Decode(&it); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return Item{}, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		kit.WriteError(w, r, http.StatusBadRequest, "extra data after json object", nil)
		return Item{}, false
	}

	if err := it.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid item", ve.Fields)
		} else {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid item", nil)
		}
		return Item{}, false
	}

	productID := chi.URLParam(r, "productId")
	if !ProductIDPattern.MatchString(productID) {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid productId format", nil)
		return Item{}, false
	}
	if it.ProductID != productID {
		kit.WriteError(w, r, http.StatusBadRequest, "productId mismatch between path and body", nil)
		return Item{}, false
	}

	return it, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, ErrBasketNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "basket not found", nil)
	case errors.Is(err, ErrItemNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "item not in basket", nil)
	case errors.Is(err, ErrDuplicateItem):
		kit.WriteError(w, r, http.StatusConflict, "item already in basket", nil)
	case errors.Is(err, ErrInsufficientFunds):
		kit.WriteError(w, r, http.StatusBadRequest, "insufficient balance", nil)
	case errors.Is(err, ErrEmptyBasket):
		kit.WriteError(w, r, http.StatusBadRequest, "basket is empty", nil)
	case errors.Is(err, ErrBasketFull):
		kit.WriteError(w, r, http.StatusBadRequest, "basket is full", nil)
	case errors.Is(err, ErrOrderTooLarge):
		kit.WriteError(w, r, http.StatusBadRequest, "order total above limit", nil)
	default:
		if s.Log != nil {
			s.Log.Error("basket operation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
