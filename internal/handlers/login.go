package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	applog "catering/internal/log"
	"catering/internal/views/pages"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login renders the authentication view and processes sign-in submissions. Form posts
// are redirected to the purchasing report, JSON posts receive the signed-in user.
func Login(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling login request", "method", r.Method, "htmx", isHTMX(r))

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		message := ""
		if sessionManager != nil {
			message = sessionManager.PopString(r.Context(), sessionLoginMessageKey)
		}
		renderLogin(w, r, http.StatusOK, message, "")
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(r.Context(), "authentication dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			if wantsJSON(r) {
				writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
				return
			}
			http.Error(w, "authentication not available", http.StatusServiceUnavailable)
			return
		}

		creds, err := readCredentials(r)
		if err != nil {
			applog.Debug(r.Context(), "failed to parse login submission", "error", err)
			if wantsJSON(r) {
				writeJSONError(w, http.StatusBadRequest, "invalid login payload")
				return
			}
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		if creds.Email == "" || creds.Password == "" {
			if wantsJSON(r) {
				writeJSONError(w, http.StatusBadRequest, "email and password are required")
				return
			}
			renderLogin(w, r, http.StatusOK, "El email y la contraseña son obligatorios.", creds.Email)
			return
		}

		if err := authenticate(r, creds.Email, creds.Password); err != nil {
			applog.Debug(r.Context(), "authentication failed", "email", strings.ToLower(creds.Email))
			message := sessionManager.PopString(r.Context(), sessionLoginMessageKey)
			if wantsJSON(r) {
				status := http.StatusInternalServerError
				if errors.Is(err, errInvalidCredentials) {
					status = http.StatusUnauthorized
				}
				writeJSONError(w, status, message)
				return
			}
			if message == "" {
				message = "No se pudo iniciar sesión. Inténtalo de nuevo."
			}
			renderLogin(w, r, http.StatusOK, message, creds.Email)
			return
		}

		applog.Info(r.Context(), "user signed in", "email", strings.ToLower(creds.Email))
		if wantsJSON(r) {
			id, _ := currentUserID(r)
			writeJSON(w, http.StatusOK, loginResponse{
				ID:    id,
				Email: sessionManager.GetString(r.Context(), sessionUserEmailKey),
				Name:  sessionManager.GetString(r.Context(), sessionUserNameKey),
				Role:  sessionManager.GetString(r.Context(), sessionUserRoleKey),
			})
			return
		}
		redirectToApp(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func readCredentials(r *http.Request) (loginRequest, error) {
	var creds loginRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return creds, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return creds, err
		}
		creds.Email = r.PostFormValue("email")
		creds.Password = r.PostFormValue("password")
	}
	creds.Email = strings.TrimSpace(creds.Email)
	return creds, nil
}

func isJSONBody(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, message, email string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.Login(message, email).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render login component", "error", err)
	}
}
