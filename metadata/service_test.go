package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/workwheel/workwheel/activity"
	"github.com/workwheel/workwheel/assignment"
	"github.com/workwheel/workwheel/event"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
	"github.com/workwheel/workwheel/persistence/memory"
)

func newTestService() MetadataService {
	storage := memory.NewStorage()
	registry := activity.NewRegistry(
		assignment.NewEngine(storage, assignment.NewManualStrategy()),
		event.NewNoopPublisher())
	return NewMetadataService(storage, registry)
}

func simpleDefinition(name string) model.WorkflowDefinition {
	return model.WorkflowDefinition{
		Name:          name,
		Active:        true,
		StartActivity: "start",
		Activities: []model.ActivityDef{
			{Id: "start", Name: "Start", Kind: "START", Next: "end"},
			{Id: "end", Name: "End", Kind: "END"},
		},
	}
}

func TestMetadataService(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, service MetadataService){
		"test publish assigns versions":   testPublishAssignsVersions,
		"test invalid definition blocked": testInvalidDefinitionBlocked,
		"test latest follows publish":     testLatestFollowsPublish,
		"test pinned version stays":       testPinnedVersionStays,
		"test unknown name":               testUnknownName,
		"test list latest per name":       testListLatestPerName,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newTestService())
		})
	}
}

func testPublishAssignsVersions(t *testing.T, service MetadataService) {
	version, err := service.SaveWorkflowDefinition(context.Background(), simpleDefinition("flow"))
	require.NoError(t, err)
	require.Equal(t, 1, version)

	version, err = service.SaveWorkflowDefinition(context.Background(), simpleDefinition("flow"))
	require.NoError(t, err)
	require.Equal(t, 2, version)
}

func testInvalidDefinitionBlocked(t *testing.T, service MetadataService) {
	wf := simpleDefinition("flow")
	wf.Activities[0].Next = "missing"
	_, err := service.SaveWorkflowDefinition(context.Background(), wf)
	require.Error(t, err)

	_, err = service.GetWorkflowDefinition(context.Background(), "flow")
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func testLatestFollowsPublish(t *testing.T, service MetadataService) {
	_, err := service.SaveWorkflowDefinition(context.Background(), simpleDefinition("flow"))
	require.NoError(t, err)

	// prime the latest cache, then publish v2 over it
	wf, err := service.GetWorkflowDefinition(context.Background(), "flow")
	require.NoError(t, err)
	require.Equal(t, 1, wf.Version)

	_, err = service.SaveWorkflowDefinition(context.Background(), simpleDefinition("flow"))
	require.NoError(t, err)

	wf, err = service.GetWorkflowDefinition(context.Background(), "flow")
	require.NoError(t, err)
	require.Equal(t, 2, wf.Version)
}

func testPinnedVersionStays(t *testing.T, service MetadataService) {
	_, err := service.SaveWorkflowDefinition(context.Background(), simpleDefinition("flow"))
	require.NoError(t, err)
	_, err = service.SaveWorkflowDefinition(context.Background(), simpleDefinition("flow"))
	require.NoError(t, err)

	wf, err := service.GetWorkflowDefinitionVersion(context.Background(), "flow", 1)
	require.NoError(t, err)
	require.Equal(t, 1, wf.Version)
}

func testUnknownName(t *testing.T, service MetadataService) {
	_, err := service.GetWorkflowDefinition(context.Background(), "ghost")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = service.GetWorkflowDefinitionVersion(context.Background(), "ghost", 3)
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func testListLatestPerName(t *testing.T, service MetadataService) {
	_, err := service.SaveWorkflowDefinition(context.Background(), simpleDefinition("alpha"))
	require.NoError(t, err)
	_, err = service.SaveWorkflowDefinition(context.Background(), simpleDefinition("alpha"))
	require.NoError(t, err)
	_, err = service.SaveWorkflowDefinition(context.Background(), simpleDefinition("beta"))
	require.NoError(t, err)

	defs, err := service.ListWorkflowDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	require.Equal(t, "alpha", defs[0].Name)
	require.Equal(t, 2, defs[0].Version)
	require.Equal(t, "beta", defs[1].Name)
}
