package handlers

import (
	"encoding/json"
	"net/http"

	"tailorshop/internal/money"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// decode reads a JSON body, keeping numbers as json.Number so amounts keep
// their exact decimal text.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

func valueToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func valueToMoney(value int64) string {
	return money.FormatMinor(value)
}
