package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 16

// actionRequest is the JSON body shared by the action-dispatched routes.
type actionRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
	Token    string `json:"token"`
}

type donationRequest struct {
	Amount *float64 `json:"amount"`
}

// decodeBody reads a JSON object into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeBadBody(w http.ResponseWriter) {
	writeMessage(w, http.StatusBadRequest, "validation_error", "Invalid request body")
}

func writeUnknownAction(w http.ResponseWriter) {
	writeMessage(w, http.StatusBadRequest, "unknown_action", "Unknown action")
}

func (s *Server) handleAuthAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	ctx := r.Context()

	switch req.Action {
	case "register":
		res, err := s.accounts.Register(ctx, req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	case "verify_email":
		res, err := s.accounts.VerifyEmail(ctx, req.Email, req.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case "login":
		res, err := s.accounts.Login(ctx, req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		writeUnknownAction(w)
	}
}

func (s *Server) handleSessionUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.SessionUser(r.Context(), sessionToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleAccountAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	ctx := r.Context()

	var (
		res any
		err error
	)
	switch req.Action {
	case "request_reset":
		res, err = s.accounts.RequestPasswordReset(ctx, req.Email)
	case "verify_reset_code":
		res, err = s.accounts.VerifyResetCode(ctx, req.Email, req.Code)
	case "reset_password":
		res, err = s.accounts.ResetPassword(ctx, req.Email, req.Code, req.Password)
	default:
		writeUnknownAction(w)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	res, err := s.accounts.DeleteAccount(r.Context(), sessionToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	user := sessionUser(r.Context())

	res, err := s.donations.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	user := sessionUser(r.Context())

	var req donationRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "validation_error", "Invalid amount")
		return
	}
	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
	}

	d, err := s.donations.Record(r.Context(), user.ID, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"donation": d})
}

func (s *Server) handleSubscriptionAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadBody(w)
		return
	}
	ctx := r.Context()

	var (
		res any
		err error
	)
	switch req.Action {
	case "subscribe":
		res, err = s.subscriptions.Subscribe(ctx, req.Email)
	case "unsubscribe":
		res, err = s.subscriptions.Unsubscribe(ctx, req.Token, req.Email)
	case "status":
		res, err = s.subscriptions.Status(ctx, req.Email)
	default:
		writeUnknownAction(w)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeMessage(w, http.StatusServiceUnavailable, "unavailable", "Store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
