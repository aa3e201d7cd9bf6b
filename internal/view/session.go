// Package view holds request-scoped view state: the browser session and
// flash messages, plus adapters between templ and gomponents.
package view

import (
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/planspiel/internal/middleware"
)

const (
	sessionName = "planspiel-session"

	keyClientID = "client_id"
	keyPlayerID = "player_id"

	flashKeySuccess = "success"
	flashKeyError   = "error"
)

// FlashData holds the flash messages of one request.
type FlashData struct {
	Success []string
	Error   []string
}

func get(c echo.Context) *sessions.Session {
	// A tampered or stale cookie yields an error together with a fresh
	// session, which is what we want.
	sess, _ := session.Get(sessionName, c)
	sess.Options = &sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true}
	return sess
}

// save writes sess back to the response. Failures are logged with the
// request's logger and returned.
func save(c echo.Context, sess *sessions.Session) error {
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to save session", "error", err)
		return err
	}
	return nil
}

// ClientID returns the browser's id, assigning one on first use. It names
// the browser's websocket connections.
func ClientID(c echo.Context) string {
	sess := get(c)
	if id, ok := sess.Values[keyClientID].(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	sess.Values[keyClientID] = id
	_ = save(c, sess)
	return id
}

// ExistingClientID returns the browser's id without assigning one.
func ExistingClientID(c echo.Context) string {
	id, _ := get(c).Values[keyClientID].(string)
	return id
}

// PlayerID returns the player this browser acts as, if any.
func PlayerID(c echo.Context) string {
	id, _ := get(c).Values[keyPlayerID].(string)
	return id
}

// SetPlayerID remembers the player this browser acts as.
func SetPlayerID(c echo.Context, playerID string) error {
	sess := get(c)
	if playerID == "" {
		delete(sess.Values, keyPlayerID)
	} else {
		sess.Values[keyPlayerID] = playerID
	}
	return save(c, sess)
}

func setFlash(c echo.Context, key, message string) {
	sess := get(c)
	sess.AddFlash(message, key)
	_ = save(c, sess)
}

// SetFlashSuccess sets a success flash message.
func SetFlashSuccess(c echo.Context, message string) {
	setFlash(c, flashKeySuccess, message)
}

// SetFlashError sets an error flash message.
func SetFlashError(c echo.Context, message string) {
	setFlash(c, flashKeyError, message)
}

// GetFlashData retrieves and clears the flash messages.
func GetFlashData(c echo.Context) FlashData {
	sess := get(c)
	success := sess.Flashes(flashKeySuccess)
	errs := sess.Flashes(flashKeyError)
	if len(success) == 0 && len(errs) == 0 {
		return FlashData{}
	}
	_ = save(c, sess)
	return FlashData{Success: toStrings(success), Error: toStrings(errs)}
}

func toStrings(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
