package main

import (
	"crypto/subtle"
	"net/http"
)

type basicAuthMiddleware struct {
	handler  http.Handler
	user     []byte
	password []byte
}

func (b *basicAuthMiddleware) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	user, pass, _ := req.BasicAuth()

	userOk := subtle.ConstantTimeCompare(b.user, []byte(user))
	passOk := subtle.ConstantTimeCompare(b.password, []byte(pass))

	if userOk+passOk == 2 {
		b.handler.ServeHTTP(w, req)

		return
	}

	w.Header().Set("WWW-Authenticate", `Basic realm="geolocator"`)
	http.Error(w, "Authentication is required", http.StatusUnauthorized)
}

func withBasicAuth(handler http.Handler, auth configBasicAuth) http.Handler {
	if !auth.Enabled() {
		return handler
	}

	return &basicAuthMiddleware{
		handler:  handler,
		user:     []byte(auth.User),
		password: []byte(auth.Password),
	}
}
