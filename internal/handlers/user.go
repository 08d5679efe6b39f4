package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/internal/auth"
	"github.com/petermazzocco/water-quality-api/internal/logger"
	"github.com/petermazzocco/water-quality-api/internal/schema"
	"github.com/petermazzocco/water-quality-api/models"
)

type signupRequest struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FullName   *string `json:"full_name"`
	Company    *string `json:"company"`
	Profession *string `json:"profession"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) SignupPageHandler(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "Signup for a new account")
}

func (s *Server) SignupHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readValidated(w, r, schema.Signup)
	if !ok {
		return
	}
	var in signupRequest
	if !decodeValidated(w, body, &in) {
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		internalError(w, r, err, "hash password")
		return
	}
	user := &models.User{
		Username:   strings.TrimSpace(in.Username),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Password:   hash,
		FullName:   in.FullName,
		Company:    in.Company,
		Profession: in.Profession,
	}
	if err := s.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			message(w, http.StatusConflict, "User already exists")
			return
		}
		internalError(w, r, err, "failed to create user")
		return
	}

	logger.FromContext(r.Context()).WithField("user_id", user.ID).Info("user signed up")
	message(w, http.StatusCreated, "Signup successful")
}

func (s *Server) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	message(w, http.StatusOK, "Please log in")
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readValidated(w, r, schema.Login)
	if !ok {
		return
	}
	var in loginRequest
	if !decodeValidated(w, body, &in) {
		return
	}

	user, err := s.Store.UserByUsername(r.Context(), strings.TrimSpace(in.Username))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		internalError(w, r, err, "user lookup failed")
		return
	}
	if user == nil || !auth.CheckPassword(user.Password, in.Password) {
		message(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.issueToken(w, r, user)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := s.Tokens.Issue(user.Username)
	if err != nil {
		internalError(w, r, err, "failed to sign token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (s *Server) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfileHandler applies only the profile fields present in the body.
func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	body, ok := s.readValidated(w, r, schema.ProfileUpdate)
	if !ok {
		return
	}
	var in map[string]any
	if !decodeValidated(w, body, &in) {
		return
	}

	changes := map[string]any{}
	if email, ok := in["email"].(string); ok {
		changes["email"] = strings.ToLower(strings.TrimSpace(email))
	}
	if password, ok := in["password"].(string); ok {
		hash, err := auth.HashPassword(password)
		if err != nil {
			internalError(w, r, err, "hash password")
			return
		}
		changes["password"] = hash
	}
	for _, field := range []string{"full_name", "company", "profession"} {
		if v, ok := in[field]; ok {
			changes[field] = v
		}
	}

	if err := s.Store.UpdateUser(r.Context(), user, changes); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			message(w, http.StatusConflict, "Email already in use")
			return
		}
		internalError(w, r, err, "failed to update profile")
		return
	}
	message(w, http.StatusOK, "Profile updated successfully")
}

func (s *Server) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(w, r)
	if user == nil {
		return
	}
	if err := s.Store.DeleteUser(r.Context(), user.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			message(w, http.StatusNotFound, "User not found")
			return
		}
		internalError(w, r, err, "failed to delete account")
		return
	}

	logger.FromContext(r.Context()).WithField("user_id", user.ID).Info("account deleted")
	message(w, http.StatusAccepted, "Account deleted successfully")
}

// gothic looks the provider up in the query string; chi keeps it in the path.
func withProvider(r *http.Request) *http.Request {
	q := r.URL.Query()
	q.Set("provider", chi.URLParam(r, "provider"))
	r.URL.RawQuery = q.Encode()
	return r
}

func (s *Server) OAuthBeginHandler(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, withProvider(r))
}

// OAuthCallbackHandler signs in the provider account, creating a local user
// keyed by the provider email on first login, and answers with an access
// token like LoginHandler.
func (s *Server) OAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	gothUser, err := gothic.CompleteUserAuth(w, withProvider(r))
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Warn("oauth login failed")
		message(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	email := strings.ToLower(strings.TrimSpace(gothUser.Email))
	if email == "" {
		message(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	user, err := s.Store.UserByEmail(r.Context(), email)
	if errors.Is(err, apperrors.ErrNotFound) {
		// OAuth accounts never log in with a password
		hash, herr := auth.HashPassword(uuid.NewString())
		if herr != nil {
			internalError(w, r, herr, "hash password")
			return
		}
		user = &models.User{Username: email, Email: email, Password: hash}
		if gothUser.Name != "" {
			name := gothUser.Name
			user.FullName = &name
		}
		err = s.Store.CreateUser(r.Context(), user)
	}
	if err != nil {
		internalError(w, r, err, "failed to resolve oauth user")
		return
	}

	s.issueToken(w, r, user)
}
