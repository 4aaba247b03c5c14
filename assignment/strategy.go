package assignment

import (
	"context"
	"strings"

	"github.com/workwheel/workwheel/model"
)

const STRATEGY_MANUAL = "Manual"
const STRATEGY_ROUND_ROBIN = "RoundRobin"
const STRATEGY_WORKLOAD = "Workload"
const STRATEGY_RANDOM = "Random"
const STRATEGY_SUPERVISOR = "Supervisor"
const STRATEGY_PREVIOUS_OWNER = "PreviousOwner"

// Strategy produces an assignee for one activity or explains why it cannot.
// A returned error counts as that strategy's failure; the cascade moves on.
type Strategy interface {
	Name() string
	Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error)
}

// normalizeStrategyName makes lookups tolerant of case and separator styles
// ("round_robin", "round-robin" and "RoundRobin" all resolve the same).
func normalizeStrategyName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	return name
}
