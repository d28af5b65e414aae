package app

import (
	"net/http"
)

func NewTransport() http.RoundTripper {
	return http.DefaultTransport
}
