package auth

import (
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// OAuthOptions configures the optional OAuth login.
type OAuthOptions struct {
	GoogleKey     string
	GoogleSecret  string
	CallbackURL   string
	SessionSecret string
	Secure        bool
}

// SetupOAuth registers the Google provider with goth and installs the cookie
// store gothic uses to keep state between the redirect and the callback.
func SetupOAuth(opts OAuthOptions) {
	goth.UseProviders(google.New(opts.GoogleKey, opts.GoogleSecret, opts.CallbackURL, "email", "profile"))

	maxAge := 86400 * 30
	store := sessions.NewCookieStore([]byte(opts.SessionSecret))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = opts.Secure
	gothic.Store = store
}
