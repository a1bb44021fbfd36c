package routes

import (
	"log"
	"net/http"

	"github.com/google/uuid"
)

const COOKIE_KEY_NAVIGATION = "depotview-nav"

func LogIfError(err error) {
	if err != nil {
		log.Print(err.Error())
	}
}

func NewNavigationSessionId() string {
	return uuid.New().String()
}

// "" when the request carries no valid session id.
func GetNavigationSessionId(r *http.Request) string {
	s, err := r.Cookie(COOKIE_KEY_NAVIGATION)
	if err != nil { return "" }
	id, err := uuid.Parse(s.Value)
	if err != nil { return "" }
	return id.String()
}

type sessionIdKey struct{}

// the session id set up by WithNavigationSession.
func NavigationSessionId(r *http.Request) string {
	v, _ := r.Context().Value(sessionIdKey{}).(string)
	return v
}
