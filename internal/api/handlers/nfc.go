package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/middleware"
	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

const msgNFCNotFound = "NFC link not found"

type NFCHandler struct {
	Resolver *services.Resolver
}

func NewNFCHandler(r *services.Resolver) *NFCHandler { return &NFCHandler{Resolver: r} }

type nfcUser struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Image *string     `json:"image"`
	Role  models.Role `json:"role"`
}

type nfcResolved struct {
	User    nfcUser         `json:"user"`
	Profile *models.Profile `json:"profile"`
	NFCLink models.Badge    `json:"nfc_link"`
}

type nfcRedirect struct {
	Redirect    bool   `json:"redirect"`
	CorrectUUID string `json:"correctUuid"`
	Message     string `json:"message"`
}

// Resolve handles GET /api/nfc/{token}.
func (h *NFCHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if t, err := url.PathUnescape(token); err == nil {
		token = t
	}

	res, err := h.Resolver.Resolve(r.Context(), token, middleware.CallerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, msgNFCNotFound)
		return
	}

	switch res.Outcome {
	case services.OutcomeUnauthenticated:
		w.WriteHeader(http.StatusNoContent)
	case services.OutcomeInvalid:
		httpx.WriteError(w, http.StatusBadRequest, "", res.Message, nil)
	case services.OutcomeNotFound:
		httpx.WriteError(w, http.StatusNotFound, "", msgNFCNotFound, nil)
	case services.OutcomeRedirect:
		httpx.WriteJSON(w, http.StatusTemporaryRedirect, nfcRedirect{
			Redirect:    true,
			CorrectUUID: res.CanonicalToken,
			Message:     "Redirecting to NFC UUID",
		})
	case services.OutcomeResolved:
		a := res.Holder.Account
		httpx.WriteJSON(w, http.StatusOK, nfcResolved{
			User:    nfcUser{ID: a.ID, Name: a.Name, Email: a.Email, Image: a.Image, Role: a.Role},
			Profile: res.Holder.Profile,
			NFCLink: res.Holder.Badge,
		})
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "", msgInternal, nil)
	}
}
