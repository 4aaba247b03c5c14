package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

func (s *Server) HandleSaveDefinition(w http.ResponseWriter, r *http.Request) {
	var wf model.WorkflowDefinition
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	version, err := s.metadataService.SaveWorkflowDefinition(r.Context(), wf)
	if err != nil {
		logger.Error("error saving workflow definition", zap.String("name", wf.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]any{"name": wf.Name, "version": version})
}

func (s *Server) HandleGetDefinition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, ok := vars["name"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	wf, err := s.metadataService.GetWorkflowDefinition(r.Context(), name)
	if err != nil {
		logger.Info("workflow definition does not exist", zap.String("name", name))
		respondWithError(w, http.StatusNotFound, "workflow definition does not exist")
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleGetDefinitionVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, ok := vars["name"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	version, err := strconv.Atoi(vars["version"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "version must be a number")
		return
	}
	wf, err := s.metadataService.GetWorkflowDefinitionVersion(r.Context(), name, version)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "workflow definition version does not exist")
			return
		}
		logger.Error("error getting workflow definition", zap.String("name", name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error getting workflow definition")
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.metadataService.ListWorkflowDefinitions(r.Context())
	if err != nil {
		logger.Error("error listing workflow definitions", zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error listing workflow definitions")
		return
	}
	respondWithJSON(w, http.StatusOK, defs)
}
