package handler

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform success response shape
type Envelope struct {
	Status  string      `json:"status"`
	Results *int        `json:"results,omitempty"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, Envelope{Status: "success", Data: data})
}

// WriteList writes a successful collection response with its
// post-pagination count
func WriteList(w http.ResponseWriter, status int, data interface{}, results int) {
	WriteJSON(w, status, Envelope{Status: "success", Results: &results, Data: data})
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response with an empty
// success envelope
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
