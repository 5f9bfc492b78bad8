package api

import (
	"net/http"

	"github.com/nerrad567/econext-bridge/internal/controller"
)

func (s *Server) handleListControllers(w http.ResponseWriter, _ *http.Request) {
	list := []controller.Controller{}
	if s.controllers != nil {
		list = s.controllers.List()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"controllers": list,
		"count":       len(list),
	})
}
