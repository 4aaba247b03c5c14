package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/workwheel/workwheel/engine"
	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
	"go.uber.org/zap"
)

func (s *Server) HandleStartWorkflow(w http.ResponseWriter, r *http.Request) {
	var startReq model.StartWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&startReq); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	resp, err := s.workflowEngine.StartWorkflow(r.Context(), startReq)
	if err != nil {
		logger.Error("error starting workflow", zap.String("name", startReq.DefinitionName), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleCompleteActivity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var resumeReq model.ResumeWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&resumeReq); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	resumeReq.InstanceId = instanceId
	resp, err := s.workflowEngine.ResumeWorkflow(r.Context(), resumeReq)
	if err != nil {
		var mismatch engine.ActivityMismatchError
		if errors.As(err, &mismatch) {
			respondWithError(w, http.StatusConflict, mismatch.Error())
			return
		}
		if errors.Is(err, persistence.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "workflow instance does not exist")
			return
		}
		logger.Error("error completing activity", zap.String("instance", instanceId),
			zap.String("activity", resumeReq.ActivityId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleGetInstance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	instance, err := s.workflowEngine.GetInstance(r.Context(), instanceId)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "workflow instance does not exist")
		return
	}
	respondWithJSON(w, http.StatusOK, instance)
}

func (s *Server) HandleGetExecutions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	executions, err := s.workflowEngine.GetExecutions(r.Context(), instanceId)
	if err != nil {
		logger.Error("error getting executions", zap.String("instance", instanceId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error getting executions")
		return
	}
	respondWithJSON(w, http.StatusOK, executions)
}

func (s *Server) HandleSuspendWorkflow(w http.ResponseWriter, r *http.Request) {
	s.handleLifecycle(w, r, s.workflowEngine.Suspend, "error suspending workflow")
}

func (s *Server) HandleReactivateWorkflow(w http.ResponseWriter, r *http.Request) {
	s.handleLifecycle(w, r, s.workflowEngine.Reactivate, "error reactivating workflow")
}

func (s *Server) HandleCancelWorkflow(w http.ResponseWriter, r *http.Request) {
	s.handleLifecycle(w, r, s.workflowEngine.Cancel, "error cancelling workflow")
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, instanceId string) error, message string) {
	vars := mux.Vars(r)
	instanceId, ok := vars["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	err := op(r.Context(), instanceId)
	if err != nil {
		logger.Error(message, zap.String("instance", instanceId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleGetOpenTasks(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userId, ok := vars["userId"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	tasks, err := s.workflowEngine.GetOpenExecutionsByAssignee(r.Context(), userId)
	if err != nil {
		logger.Error("error getting open tasks", zap.String("user", userId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error getting open tasks")
		return
	}
	respondWithJSON(w, http.StatusOK, tasks)
}
