package agent

import (
	"context"
	"sync"

	"github.com/workwheel/workwheel/config"
	"github.com/workwheel/workwheel/container"
	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/rest"
)

type Agent struct {
	Config       config.Config
	container    *container.DIContainer
	httpServer   *rest.Server
	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config:    conf,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupLogger,
		a.setupContainer,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupLogger() error {
	return logger.Init(a.Config.LogLevel)
}

func (a *Agent) setupContainer() error {
	a.container = container.NewDiContainer()
	return a.container.Init(context.Background(), a.Config)
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort,
		a.container.GetMetadataService(),
		a.container.GetWorkflowEngine(),
		a.container.GetResolver())
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	if err := a.httpServer.Stop(); err != nil {
		return err
	}
	logger.Sync()
	return nil
}
