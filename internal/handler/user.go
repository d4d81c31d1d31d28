package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tush00nka/filestash/api/response"
	"tush00nka/filestash/internal/pkg/auth"
	"tush00nka/filestash/internal/pkg/httputils"
	"tush00nka/filestash/internal/service"
)

type UserHandler struct {
	userService  service.UserService
	sessionTTL   time.Duration
	secureCookie bool
}

func NewUserHandler(userService service.UserService, sessionTTL time.Duration, secureCookie bool) *UserHandler {
	return &UserHandler{userService: userService, sessionTTL: sessionTTL, secureCookie: secureCookie}
}

func (h *UserHandler) RegisterRoutes(public, private *mux.Router) {
	public.HandleFunc("/auth/sign-up", h.signUp).Methods("POST", "OPTIONS")
	public.HandleFunc("/auth/sign-in", h.signIn).Methods("POST", "OPTIONS")
	public.HandleFunc("/auth/verify", h.verify).Methods("POST", "OPTIONS")
	private.HandleFunc("/auth/sign-out", h.signOut).Methods("POST", "OPTIONS")
	private.HandleFunc("/users/me", h.me).Methods("GET", "OPTIONS")
}

type SignUpRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type SignInRequest struct {
	Email string `json:"email"`
}

type AccountResponse struct {
	AccountID string `json:"account_id"`
}

type VerifyRequest struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// @Summary Sign up
// @Description Create a user and email a one-time code
// @ID sign-up
// @Tags auth
// @Accept json
// @Produce json
// @Param signUpData body SignUpRequest true "Sign up data"
// @Success 200 {object} AccountResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /auth/sign-up [post]
func (h *UserHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var request SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID, err := h.userService.SignUp(r.Context(), request.FullName, request.Email)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, AccountResponse{AccountID: accountID})
}

// @Summary Sign in
// @Description Email a one-time code to an existing user
// @ID sign-in
// @Tags auth
// @Accept json
// @Produce json
// @Param signInData body SignInRequest true "Sign in data"
// @Success 200 {object} AccountResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/sign-in [post]
func (h *UserHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var request SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID, err := h.userService.SignIn(r.Context(), request.Email)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, AccountResponse{AccountID: accountID})
}

// @Summary Verify code
// @Description Exchange a one-time code for a session. The token is also set as the session cookie.
// @ID verify
// @Tags auth
// @Accept json
// @Produce json
// @Param verifyData body VerifyRequest true "Code"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/verify [post]
func (h *UserHandler) verify(w http.ResponseWriter, r *http.Request) {
	var request VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	token, err := h.userService.Verify(r.Context(), request.AccountID, request.Code)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	httputils.ResponseJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// @Summary Sign out
// @Description Revoke the current session
// @ID sign-out
// @Tags auth
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} response.StatusResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/sign-out [post]
func (h *UserHandler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.SignOut(r.Context(), tokenFromContext(r.Context())); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	httputils.ResponseJSON(w, http.StatusOK, response.StatusResponse{Status: "success"})
}

// @Summary Current user
// @ID me
// @Tags users
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} model.User
// @Failure 401 {object} response.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, http.StatusOK, currentUser(r))
}
