package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const FlashCookie = "flash"

const (
	FlashSuccess = "success"
	FlashError   = "danger"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func SetFlash(w http.ResponseWriter, level, msg string) {
	b, _ := json.Marshal(Flash{Level: level, Message: msg})
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads and clears the flash cookie. Headers must not be written yet.
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(FlashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: FlashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// Redirect flashes msg and sends the client to url with 303 See Other.
func Redirect(w http.ResponseWriter, r *http.Request, url, level, msg string) {
	if msg != "" {
		SetFlash(w, level, msg)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
