package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/leslieo2/tioga-health/internal/constants"
)

func (s *Server) sendHTML(w http.ResponseWriter, statusCode int, data pageData) {
	body, err := renderPage(data)
	if err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTML)
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func (s *Server) sendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
