package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "funnel"
	visitorKey = "visitor"
)

// NewCookieStore returns the signed cookie store that carries visitor ids.
func NewCookieStore(secret string, maxAge int) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// visitorID returns the visitor's id, issuing a new one (and the cookie) when
// the request carries none. A tampered cookie is treated as a new visitor.
func visitorID(store sessions.Store, w http.ResponseWriter, r *http.Request) (string, error) {
	session, _ := store.Get(r, cookieName)
	if id, ok := session.Values[visitorKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	session.Values[visitorKey] = id
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// existingVisitor reads the id without issuing one.
func existingVisitor(store sessions.Store, r *http.Request) (string, bool) {
	session, err := store.Get(r, cookieName)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[visitorKey].(string)
	return id, ok && id != ""
}
