package container

import (
	"context"
	"fmt"

	"github.com/workwheel/workwheel/activity"
	"github.com/workwheel/workwheel/assignment"
	"github.com/workwheel/workwheel/config"
	"github.com/workwheel/workwheel/engine"
	"github.com/workwheel/workwheel/event"
	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/metadata"
	"github.com/workwheel/workwheel/persistence"
	"github.com/workwheel/workwheel/persistence/memory"
	pg "github.com/workwheel/workwheel/persistence/postgres"
)

type DIContainer struct {
	initialized       bool
	metadataStorage   persistence.MetadataStorage
	flowStorage       persistence.FlowStorage
	roundRobinStorage persistence.RoundRobinStorage
	resolver          *groups.StaticResolver
	publisher         event.Publisher
	assignEngine      *assignment.Engine
	registry          *activity.Registry
	metadataService   metadata.MetadataService
	workflowEngine    *engine.WorkflowEngine
}

func NewDiContainer() *DIContainer {
	return &DIContainer{}
}

func (d *DIContainer) Init(ctx context.Context, conf config.Config) error {
	defer d.setInitialized()

	switch conf.StorageType {
	case config.STORAGE_TYPE_POSTGRES:
		store, err := pg.NewStore(ctx, pg.Config{DSN: conf.PostgresConfig.DSN})
		if err != nil {
			return err
		}
		d.metadataStorage = pg.NewMetadataDao(store)
		d.flowStorage = pg.NewFlowDao(store)
		d.roundRobinStorage = pg.NewRoundRobinDao(store)
	case config.STORAGE_TYPE_INMEM:
		storage := memory.NewStorage()
		d.metadataStorage = storage
		d.flowStorage = storage
		d.roundRobinStorage = storage
	default:
		return fmt.Errorf("unknown storage type %s", conf.StorageType)
	}

	switch conf.PublisherType {
	case config.PUBLISHER_TYPE_REDIS:
		d.publisher = event.NewRedisPublisher(event.Config{
			Addrs:     conf.RedisConfig.Addrs,
			Namespace: conf.RedisConfig.Namespace,
		})
	default:
		d.publisher = event.NewNoopPublisher()
	}

	d.resolver = groups.NewStaticResolver()
	d.assignEngine = assignment.NewEngine(d.flowStorage,
		assignment.NewManualStrategy(),
		assignment.NewRoundRobinStrategy(d.resolver, d.roundRobinStorage),
		assignment.NewWorkloadStrategy(d.resolver, d.flowStorage),
		assignment.NewRandomStrategy(d.resolver),
		assignment.NewSupervisorStrategy(d.resolver, d.flowStorage),
		assignment.NewPreviousOwnerStrategy(d.flowStorage),
	)
	d.registry = activity.NewRegistry(d.assignEngine, d.publisher)
	d.metadataService = metadata.NewMetadataService(d.metadataStorage, d.registry)
	d.workflowEngine = engine.NewWorkflowEngine(d.metadataService, d.flowStorage, d.registry, d.publisher)
	return nil
}

func (d *DIContainer) setInitialized() {
	d.initialized = true
}

func (d *DIContainer) GetMetadataService() metadata.MetadataService {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.metadataService
}

func (d *DIContainer) GetWorkflowEngine() *engine.WorkflowEngine {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.workflowEngine
}

func (d *DIContainer) GetAssignmentEngine() *assignment.Engine {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.assignEngine
}

func (d *DIContainer) GetResolver() *groups.StaticResolver {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.resolver
}

func (d *DIContainer) GetFlowStorage() persistence.FlowStorage {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.flowStorage
}
