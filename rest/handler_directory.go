package rest

import (
	"encoding/json"
	"net/http"

	"github.com/workwheel/workwheel/logger"
	"go.uber.org/zap"
)

type registerUserRequest struct {
	UserId     string   `json:"userId"`
	Groups     []string `json:"groups"`
	Supervisor string   `json:"supervisor,omitempty"`
}

// HandleRegisterUser feeds the static user directory backing group
// resolution. Deployments with a real directory replace the resolver
// instead of calling this.
func (s *Server) HandleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if req.UserId == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}
	s.resolver.AddUser(req.UserId, req.Groups...)
	if req.Supervisor != "" {
		s.resolver.SetSupervisor(req.UserId, req.Supervisor)
	}
	logger.Info("user registered", zap.String("user", req.UserId), zap.Strings("groups", req.Groups))
	respondOK(w, map[string]any{"registered": true})
}
