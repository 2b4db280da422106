package app

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "ts_session"

const sessionTTL = 12 * time.Hour

type sessionPayload struct {
	SID   int64  `json:"sid"`
	Exp   int64  `json:"exp"`
	Nonce string `json:"nonce"`
}

var ErrPasswordTooShort = errors.New("password too short")

func NormalizeUsername(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func HashPassword(pw string) (string, error) {
	pw = strings.TrimSpace(pw)
	if len(pw) < 8 {
		return "", ErrPasswordTooShort
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash string, pw string) bool {
	if hash == "" || pw == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(pw))) == nil
}

// SetSessionStaff sets a signed cookie carrying the staff id, valid for one shift.
func (a *App) SetSessionStaff(w http.ResponseWriter, staffID int64) error {
	pl := sessionPayload{
		SID:   staffID,
		Exp:   a.now().Add(sessionTTL).Unix(),
		Nonce: randomNonce(),
	}
	val, err := a.signJSON(pl)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.secureCookies(),
		Expires:  time.Unix(pl.Exp, 0),
	})
	return nil
}

func (a *App) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.secureCookies(),
	})
}

func (a *App) SessionStaffID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	var pl sessionPayload
	if err := a.verifyJSON(c.Value, &pl); err != nil {
		return 0, false
	}
	if pl.SID <= 0 || pl.Exp <= 0 || a.now().Unix() > pl.Exp {
		return 0, false
	}
	return pl.SID, true
}

func (a *App) secureCookies() bool {
	return strings.HasPrefix(strings.ToLower(a.cfg.BaseURL), "https://")
}

/* ---------- signed cookie helpers ---------- */

func (a *App) signJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + a.sign(payload), nil
}

func (a *App) verifyJSON(s string, out any) error {
	payload, sig, ok := strings.Cut(s, ".")
	if !ok || strings.Contains(sig, ".") {
		return errors.New("bad format")
	}
	if !a.verify(payload, sig) {
		return errors.New("bad signature")
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (a *App) sign(payload string) string {
	m := hmac.New(sha256.New, a.sessionKey)
	_, _ = m.Write([]byte(payload))
	return hex.EncodeToString(m.Sum(nil))
}

func (a *App) verify(payload, sigHex string) bool {
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	m := hmac.New(sha256.New, a.sessionKey)
	_, _ = m.Write([]byte(payload))
	return hmac.Equal(got, m.Sum(nil))
}

func randomNonce() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
