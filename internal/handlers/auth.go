package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "catering/internal/log"
	"catering/internal/planning"
	"catering/models"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionLoginMessageKey  = "auth:message"
	sessionUserIDKey        = "auth:user:id"
	sessionUserEmailKey     = "auth:user:email"
	sessionUserNameKey      = "auth:user:name"
	sessionUserRoleKey      = "auth:user:role"

	appHome = "/app/purchasing/report"
)

var errInvalidCredentials = errors.New("invalid email or password")

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	planner        *planning.Service
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB, svc *planning.Service) {
	sessionManager = sm
	database = db
	planner = svc
}

func findUserByEmail(r *http.Request, email string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	user := &models.User{}
	err := database.WithContext(r.Context()).Where("lower(email) = ?", strings.ToLower(email)).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authenticate verifies the credentials and populates the session. The returned error
// is errInvalidCredentials for a wrong email or password.
func authenticate(r *http.Request, email, password string) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}

	user, err := findUserByEmail(r, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sessionManager.Put(r.Context(), sessionLoginMessageKey, "Email o contraseña incorrectos.")
			return errInvalidCredentials
		}
		applog.Error(r.Context(), "failed to load user during login", "error", err)
		sessionManager.Put(r.Context(), sessionLoginMessageKey, "No se pudo iniciar sesión. Inténtalo de nuevo.")
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		sessionManager.Put(r.Context(), sessionLoginMessageKey, "Email o contraseña incorrectos.")
		return errInvalidCredentials
	}

	if err := establishSession(r, user); err != nil {
		applog.Error(r.Context(), "failed to establish session", "error", err)
		sessionManager.Put(r.Context(), sessionLoginMessageKey, "No se pudo iniciar sesión. Inténtalo de nuevo.")
		return err
	}

	return nil
}

func establishSession(r *http.Request, user *models.User) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if err := sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	sessionManager.Put(r.Context(), sessionAuthenticatedKey, true)
	sessionManager.Put(r.Context(), sessionUserIDKey, int(user.ID))
	sessionManager.Put(r.Context(), sessionUserEmailKey, user.Email)
	sessionManager.Put(r.Context(), sessionUserNameKey, user.Name)
	sessionManager.Put(r.Context(), sessionUserRoleKey, models.NormalizeRole(user.Role))
	return nil
}

// RequireAuthentication ensures the user has an active session before accessing the resource.
// API requests get a JSON 401, pages are redirected to the login form.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActiveSession(r) {
			if strings.HasPrefix(r.URL.Path, "/app/api/") {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logout destroys the current session and redirects the user to the login screen.
func Logout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sessionManager != nil {
		if err := sessionManager.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		}
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirectToLogin(w, r)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func redirectToApp(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", appHome)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, appHome, http.StatusSeeOther)
}

// ActiveSession returns true when the current request has an authenticated session.
func ActiveSession(r *http.Request) bool {
	if sessionManager == nil {
		return false
	}
	return sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) && sessionManager.GetInt(r.Context(), sessionUserIDKey) > 0
}

func currentUserID(r *http.Request) (uint, bool) {
	if sessionManager == nil {
		return 0, false
	}
	id := sessionManager.GetInt(r.Context(), sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}
