package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/Varun5711/authlocal/internal/logger"
	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/Varun5711/authlocal/internal/service"
	"github.com/Varun5711/authlocal/internal/validation"
)

const maxBodyBytes = 100 << 10

// Authenticator runs one login attempt to a terminal outcome.
type Authenticator interface {
	Login(ctx context.Context, req usermodel.LoginRequest) service.Outcome
}

type AuthHandler struct {
	auth   Authenticator
	appURL *url.URL
	log    *logger.Logger
}

func NewAuthHandler(auth Authenticator, appURL *url.URL, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		appURL: appURL,
		log:    log,
	}
}

type LoginResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}

type ValidationErrorResponse struct {
	Success          bool                    `json:"success"`
	Error            string                  `json:"error"`
	ValidationErrors []validation.FieldError `json:"validationErrors"`
}

// Login handles POST /auth/api/v1/local.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !acceptsJSON(r.Header.Get("Accept")) {
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
		return
	}

	req, bodyErr := decodeCredentials(w, r)
	if bodyErr != nil {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Success:          false,
			Error:            ErrTagValidation,
			ValidationErrors: []validation.FieldError{*bodyErr},
		})
		return
	}

	switch o := h.auth.Login(r.Context(), req).(type) {
	case service.Success:
		respondJSON(w, http.StatusOK, LoginResponse{
			Success:  true,
			Redirect: addParams(h.appURL, map[string]string{"jwt": o.Token}),
		})
	case service.ValidationFailed:
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Success:          false,
			Error:            ErrTagValidation,
			ValidationErrors: o.Errors,
		})
	case service.InvalidCredentials:
		respondError(w, http.StatusUnauthorized, ErrTagInvalidCredentials)
	case service.ServerError:
		respondError(w, http.StatusInternalServerError, ErrTagServer)
	default:
		logger.FromContext(r.Context(), h.log).Error("Unhandled login outcome %T", o)
		respondError(w, http.StatusInternalServerError, ErrTagServer)
	}
}

// decodeCredentials reads the login body. Bodies that are not declared as
// JSON are treated as empty, so the attempt fails field validation. Fields of
// the wrong JSON type read as empty strings.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (usermodel.LoginRequest, *validation.FieldError) {
	var req usermodel.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return req, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, &validation.FieldError{Param: "body", Msg: "Request body too large"}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return req, &validation.FieldError{Param: "body", Msg: "Malformed JSON body"}
	}

	req.Email, _ = fields["email"].(string)
	req.Password, _ = fields["password"].(string)
	return req, nil
}
