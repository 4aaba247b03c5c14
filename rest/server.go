package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/workwheel/workwheel/engine"
	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/metadata"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port            int
	metadataService metadata.MetadataService
	workflowEngine  *engine.WorkflowEngine
	resolver        *groups.StaticResolver
}

func NewServer(httpPort int, metadataService metadata.MetadataService, workflowEngine *engine.WorkflowEngine, resolver *groups.StaticResolver) (*Server, error) {

	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		metadataService: metadataService,
		workflowEngine:  workflowEngine,
		resolver:        resolver,
		Port:            httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/metadata/workflow", s.HandleSaveDefinition).Methods(http.MethodPost)
	router.HandleFunc("/metadata/workflow", s.HandleListDefinitions).Methods(http.MethodGet)
	router.HandleFunc("/metadata/workflow/{name}", s.HandleGetDefinition).Methods(http.MethodGet)
	router.HandleFunc("/metadata/workflow/{name}/{version}", s.HandleGetDefinitionVersion).Methods(http.MethodGet)

	router.HandleFunc("/workflow", s.HandleStartWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}", s.HandleGetInstance).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}/executions", s.HandleGetExecutions).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}/complete", s.HandleCompleteActivity).Methods(http.MethodPost)
	router.HandleFunc("/workflow/{id}/suspend", s.HandleSuspendWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}/reactivate", s.HandleReactivateWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/workflow/{id}/cancel", s.HandleCancelWorkflow).Methods(http.MethodGet)

	router.HandleFunc("/tasks/{userId}", s.HandleGetOpenTasks).Methods(http.MethodGet)

	router.HandleFunc("/directory/user", s.HandleRegisterUser).Methods(http.MethodPost)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	res, _ := json.Marshal(message)
	w.Write(res)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
