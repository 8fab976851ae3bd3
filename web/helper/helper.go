package helper

import (
	"encoding/json"
	"errors"
	"net/http"

	"mccdaq/apperror"
)

func ReturnFailure(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	var errr apperror.Apperror
	code, msg := apperror.ServerError.StatusAndMessage()
	if errors.As(err, &errr) {
		code, msg = errr.StatusAndMessage()
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func ReturnSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if data == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(data)
}
