package account

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/verlofplanner/verlof/internal/rest"
)

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type AccountDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	ConnectedAt time.Time `json:"connectedAt"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

func (h *Handler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.AuthURL(r.URL.Query().Get("finalUrl"))
	if err != nil {
		if errors.Is(err, ErrLoginUnavailable) {
			rest.WriteError(w, http.StatusServiceUnavailable, "Google login is not configured", "")
			return
		}
		log.Errorf("failed to start Google login: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: u})
}

func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	finalURL, _, err := h.service.Complete(r.Context(), r.FormValue("state"), r.FormValue("code"))
	if err != nil {
		log.Errorf("Google login failed: %v", err)
		if finalURL == "" || errors.Is(err, ErrInvalidState) {
			rest.WriteError(w, http.StatusBadRequest, "Failed to handle Google authentication", err.Error())
			return
		}
		http.Redirect(w, r, withSuccess(finalURL, false), http.StatusFound)
		return
	}
	http.Redirect(w, r, withSuccess(finalURL, true), http.StatusFound)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.service.Accounts()
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, AccountDTO{ID: a.ID, Email: a.Email, ConnectedAt: a.ConnectedAt})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.service.Remove(r.Context(), mux.Vars(r)["accountId"])
	if errors.Is(err, ErrAccountNotFound) {
		rest.WriteError(w, http.StatusNotFound, "Account not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func withSuccess(finalURL string, success bool) string {
	u, err := url.Parse(finalURL)
	if err != nil || finalURL == "" {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	if success {
		q.Set("success", "true")
	} else {
		q.Set("success", "false")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
