package metadata

import (
	"context"
	"fmt"
	"time"

	c "github.com/patrickmn/go-cache"
	"github.com/workwheel/workwheel/activity"
	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
	"go.uber.org/zap"
)

type MetadataService interface {
	SaveWorkflowDefinition(ctx context.Context, wf model.WorkflowDefinition) (int, error)
	GetWorkflowDefinition(ctx context.Context, name string) (*model.WorkflowDefinition, error)
	GetWorkflowDefinitionVersion(ctx context.Context, name string, version int) (*model.WorkflowDefinition, error)
	ListWorkflowDefinitions(ctx context.Context) ([]*model.WorkflowDefinition, error)
}

// metadataService validates definitions through the activity registry before
// persisting and serves reads through a cache. Pinned versions are immutable
// so they cache forever; the latest pointer is invalidated on publish.
type metadataService struct {
	storage  persistence.MetadataStorage
	registry *activity.Registry
	cache    *c.Cache
}

var _ MetadataService = new(metadataService)

func NewMetadataService(storage persistence.MetadataStorage, registry *activity.Registry) *metadataService {
	return &metadataService{
		storage:  storage,
		registry: registry,
		cache:    c.New(c.NoExpiration, 10*time.Minute),
	}
}

func (s *metadataService) SaveWorkflowDefinition(ctx context.Context, wf model.WorkflowDefinition) (int, error) {
	if err := s.registry.ValidateDefinition(&wf); err != nil {
		return 0, err
	}
	version, err := s.storage.SaveWorkflowDefinition(ctx, wf)
	if err != nil {
		return 0, err
	}
	s.cache.Delete(latestKey(wf.Name))
	logger.Info("workflow definition published", zap.String("workflow", wf.Name), zap.Int("version", version))
	return version, nil
}

func (s *metadataService) GetWorkflowDefinition(ctx context.Context, name string) (*model.WorkflowDefinition, error) {
	if cached, found := s.cache.Get(latestKey(name)); found {
		return cached.(*model.WorkflowDefinition), nil
	}
	wf, err := s.storage.GetWorkflowDefinition(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(latestKey(name), wf, c.DefaultExpiration)
	return wf, nil
}

func (s *metadataService) GetWorkflowDefinitionVersion(ctx context.Context, name string, version int) (*model.WorkflowDefinition, error) {
	key := versionKey(name, version)
	if cached, found := s.cache.Get(key); found {
		return cached.(*model.WorkflowDefinition), nil
	}
	wf, err := s.storage.GetWorkflowDefinitionVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, wf, c.NoExpiration)
	return wf, nil
}

func (s *metadataService) ListWorkflowDefinitions(ctx context.Context) ([]*model.WorkflowDefinition, error) {
	return s.storage.ListWorkflowDefinitions(ctx)
}

func latestKey(name string) string {
	return fmt.Sprintf("latest:%s", name)
}

func versionKey(name string, version int) string {
	return fmt.Sprintf("version:%s:%d", name, version)
}
