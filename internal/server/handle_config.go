package server

import "net/http"

// ClientConfig is what the SPA needs before it can render a match.
type ClientConfig struct {
	MapsKey       string `json:"mapsKey"`
	RoundSeconds  int    `json:"roundSeconds"`
	InitialHealth int    `json:"initialHealth"`
}

func handleClientConfig(cfg ClientConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cfg)
	}
}
