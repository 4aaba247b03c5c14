package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

// Storage is the in-process implementation of every storage interface. Per
// instance and per round-robin key mutexes stand in for the row locks the
// postgres implementation takes; the store is not shared across processes so
// that is sufficient for the fairness invariant.
type Storage struct {
	mu          sync.Mutex
	definitions map[string][]*model.WorkflowDefinition
	instances   map[string]*lockedInstance
	executions  map[string][]*model.ActivityExecution
	rrEntries   map[string][]*model.RoundRobinEntry
	rrLocks     map[string]*sync.Mutex
}

type lockedInstance struct {
	mu       sync.Mutex
	instance *model.WorkflowInstance
}

var _ persistence.MetadataStorage = new(Storage)
var _ persistence.FlowStorage = new(Storage)
var _ persistence.RoundRobinStorage = new(Storage)

func NewStorage() *Storage {
	return &Storage{
		definitions: make(map[string][]*model.WorkflowDefinition),
		instances:   make(map[string]*lockedInstance),
		executions:  make(map[string][]*model.ActivityExecution),
		rrEntries:   make(map[string][]*model.RoundRobinEntry),
		rrLocks:     make(map[string]*sync.Mutex),
	}
}

func (s *Storage) SaveWorkflowDefinition(ctx context.Context, wf model.WorkflowDefinition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.definitions[wf.Name]
	wf.Version = len(versions) + 1
	wf.CreatedAt = time.Now()
	s.definitions[wf.Name] = append(versions, &wf)
	return wf.Version, nil
}

func (s *Storage) GetWorkflowDefinition(ctx context.Context, name string) (*model.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.definitions[name]
	if len(versions) == 0 {
		return nil, persistence.ErrNotFound
	}
	return versions[len(versions)-1], nil
}

func (s *Storage) GetWorkflowDefinitionVersion(ctx context.Context, name string, version int) (*model.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.definitions[name]
	if version < 1 || version > len(versions) {
		return nil, persistence.ErrNotFound
	}
	return versions[version-1], nil
}

func (s *Storage) ListWorkflowDefinitions(ctx context.Context) ([]*model.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*model.WorkflowDefinition, 0, len(s.definitions))
	for _, versions := range s.definitions {
		result = append(result, versions[len(versions)-1])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Storage) CreateInstance(ctx context.Context, instance *model.WorkflowInstance, executions []*model.ActivityExecution) error {
	copied, err := s.copyInstance(instance)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[instance.Id]; ok {
		return persistence.ErrConcurrencyConflict
	}
	s.instances[instance.Id] = &lockedInstance{instance: copied}
	for _, execution := range executions {
		copiedExec, err := s.copyExecution(execution)
		if err != nil {
			return persistence.StorageLayerError{Message: err.Error()}
		}
		s.executions[instance.Id] = append(s.executions[instance.Id], copiedExec)
	}
	return nil
}

func (s *Storage) GetInstance(ctx context.Context, instanceId string) (*model.WorkflowInstance, error) {
	s.mu.Lock()
	locked, ok := s.instances[instanceId]
	s.mu.Unlock()
	if !ok {
		return nil, persistence.ErrNotFound
	}
	locked.mu.Lock()
	defer locked.mu.Unlock()
	return s.copyInstance(locked.instance)
}

func (s *Storage) UpdateInstance(ctx context.Context, instanceId string, fn func(tx persistence.InstanceTx) error) error {
	s.mu.Lock()
	locked, ok := s.instances[instanceId]
	s.mu.Unlock()
	if !ok {
		return persistence.ErrNotFound
	}
	locked.mu.Lock()
	defer locked.mu.Unlock()
	working, err := s.copyInstance(locked.instance)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	tx := &instanceTx{storage: s, instance: working}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	locked.instance = working
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, staged := range tx.staged {
		s.upsertExecution(staged)
	}
	return nil
}

func (s *Storage) upsertExecution(execution *model.ActivityExecution) {
	list := s.executions[execution.InstanceId]
	for i, existing := range list {
		if existing.Id == execution.Id {
			list[i] = execution
			return
		}
	}
	s.executions[execution.InstanceId] = append(list, execution)
}

func (s *Storage) GetExecutions(ctx context.Context, instanceId string) ([]*model.ActivityExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.executions[instanceId]
	result := make([]*model.ActivityExecution, 0, len(list))
	for _, execution := range list {
		copied, err := s.copyExecution(execution)
		if err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		result = append(result, copied)
	}
	return result, nil
}

func (s *Storage) GetOpenExecutionsByAssignee(ctx context.Context, userId string) ([]*model.ActivityExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*model.ActivityExecution
	for _, list := range s.executions {
		for _, execution := range list {
			if execution.AssignedTo == userId && execution.Status.IsOpen() {
				copied, err := s.copyExecution(execution)
				if err != nil {
					return nil, persistence.StorageLayerError{Message: err.Error()}
				}
				result = append(result, copied)
			}
		}
	}
	return result, nil
}

func (s *Storage) CountOpenAssignments(ctx context.Context, userId string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, list := range s.executions {
		for _, execution := range list {
			if execution.AssignedTo == userId && execution.Status.IsOpen() {
				count++
			}
		}
	}
	return count, nil
}

// deepCopy detaches a record from the store through a JSON round trip, so
// callers can never mutate stored state outside UpdateInstance.
func deepCopy[T any](value *T) (*T, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Storage) copyInstance(instance *model.WorkflowInstance) (*model.WorkflowInstance, error) {
	return deepCopy(instance)
}

func (s *Storage) copyExecution(execution *model.ActivityExecution) (*model.ActivityExecution, error) {
	return deepCopy(execution)
}

type instanceTx struct {
	storage  *Storage
	instance *model.WorkflowInstance
	staged   []*model.ActivityExecution
}

var _ persistence.InstanceTx = new(instanceTx)

func (tx *instanceTx) Instance() *model.WorkflowInstance {
	return tx.instance
}

func (tx *instanceTx) Executions() ([]*model.ActivityExecution, error) {
	return tx.storage.GetExecutions(context.Background(), tx.instance.Id)
}

func (tx *instanceTx) StageExecution(execution *model.ActivityExecution) {
	tx.staged = append(tx.staged, execution)
}
