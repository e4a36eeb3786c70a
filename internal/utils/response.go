package utils

import (
	"encoding/json"
	"net/http"

	"ELDEREASE_BACK-END/internal/dto"
)

// WriteJSONResponse writes a JSON response to the HTTP response writer
func WriteJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteMessage writes a {"message": ...} body, the shape the mobile client
// reads for both success and failure.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSONResponse(w, status, dto.MessageResponse{Message: message})
}
