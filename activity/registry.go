package activity

import (
	"fmt"

	"github.com/workwheel/workwheel/assignment"
	"github.com/workwheel/workwheel/event"
	"github.com/workwheel/workwheel/model"
)

// PropertySpec describes one configurable property of an activity kind.
type PropertySpec struct {
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Default  any      `json:"default,omitempty"`
	Allowed  []string `json:"allowed,omitempty"`
}

type Schema map[string]PropertySpec

type Factory func(def *model.ActivityDef) (Activity, error)

// Registry maps the closed set of activity kinds to behavior factories and
// configuration schemas. It is populated once at construction and read-only
// afterwards; an unregistered kind is a configuration error, never a default.
type Registry struct {
	schemas   map[Kind]Schema
	factories map[Kind]Factory
}

func NewRegistry(assignEngine *assignment.Engine, publisher event.Publisher) *Registry {
	r := &Registry{
		schemas:   make(map[Kind]Schema),
		factories: make(map[Kind]Factory),
	}
	r.register(KIND_START, Schema{}, func(def *model.ActivityDef) (Activity, error) {
		return NewStartActivity(def), nil
	})
	r.register(KIND_END, Schema{}, func(def *model.ActivityDef) (Activity, error) {
		return NewEndActivity(def), nil
	})
	r.register(KIND_TASK, Schema{
		"assignee":   {Type: "string"},
		"group":      {Type: "string"},
		"priority":   {Type: "string", Default: "normal", Allowed: []string{"low", "normal", "high"}},
		"dueInHours": {Type: "number"},
	}, func(def *model.ActivityDef) (Activity, error) {
		return NewTaskActivity(def, assignEngine), nil
	})
	r.register(KIND_DECISION, Schema{}, func(def *model.ActivityDef) (Activity, error) {
		return NewDecisionActivity(def), nil
	})
	r.register(KIND_SCRIPT, Schema{}, func(def *model.ActivityDef) (Activity, error) {
		return NewScriptActivity(def), nil
	})
	r.register(KIND_NOTIFY, Schema{}, func(def *model.ActivityDef) (Activity, error) {
		return NewNotifyActivity(def, publisher), nil
	})
	return r
}

func (r *Registry) register(kind Kind, schema Schema, factory Factory) {
	r.schemas[kind] = schema
	r.factories[kind] = factory
}

func (r *Registry) Build(def *model.ActivityDef) (Activity, error) {
	kind, err := ToKind(def.Kind)
	if err != nil {
		return nil, err
	}
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("activity kind %s not found", def.Kind)
	}
	return factory(def)
}

func (r *Registry) Schema(kind Kind) (Schema, error) {
	schema, ok := r.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("activity kind %s not found", kind)
	}
	return schema, nil
}

// ValidateDefinition rejects a definition at save time: unknown kinds,
// duplicate ids, dangling transitions, and schema violations all surface
// here instead of at dispatch.
func (r *Registry) ValidateDefinition(wf *model.WorkflowDefinition) error {
	if len(wf.Activities) == 0 {
		return fmt.Errorf("workflow %s has no activities", wf.Name)
	}
	ids := make(map[string]Kind, len(wf.Activities))
	for i := range wf.Activities {
		def := &wf.Activities[i]
		if _, ok := ids[def.Id]; ok {
			return fmt.Errorf("activity id %s is duplicate", def.Id)
		}
		kind, err := ToKind(def.Kind)
		if err != nil {
			return err
		}
		ids[def.Id] = kind
	}
	startKind, ok := ids[wf.StartActivity]
	if !ok {
		return fmt.Errorf("no activity with start activity id %s in workflow", wf.StartActivity)
	}
	if startKind != KIND_START {
		return fmt.Errorf("start activity %s must be of kind START", wf.StartActivity)
	}
	for i := range wf.Activities {
		if err := r.validateActivity(&wf.Activities[i], ids); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateActivity(def *model.ActivityDef, ids map[string]Kind) error {
	kind := ids[def.Id]
	checkTarget := func(target string, label string) error {
		if target == "" {
			return nil
		}
		if _, ok := ids[target]; !ok {
			return fmt.Errorf("activity %s %s references unknown activity %s", def.Id, label, target)
		}
		return nil
	}
	switch kind {
	case KIND_END:
		if def.Next != "" {
			return fmt.Errorf("end activity %s can not have a next activity", def.Id)
		}
	case KIND_DECISION:
		if def.Expression == "" {
			return fmt.Errorf("decision activity %s requires an expression", def.Id)
		}
		if len(def.Conditions) == 0 && def.DefaultNext == "" {
			return fmt.Errorf("decision activity %s requires conditions or a default route", def.Id)
		}
		for event, target := range def.Conditions {
			if err := checkTarget(target, fmt.Sprintf("condition %q", event)); err != nil {
				return err
			}
		}
		if err := checkTarget(def.DefaultNext, "default route"); err != nil {
			return err
		}
	default:
		if def.Next == "" {
			return fmt.Errorf("activity %s requires a next activity", def.Id)
		}
		if err := checkTarget(def.Next, "next"); err != nil {
			return err
		}
	}
	switch kind {
	case KIND_SCRIPT:
		if def.Expression == "" {
			return fmt.Errorf("script activity %s requires an expression", def.Id)
		}
	case KIND_NOTIFY:
		if def.EventType == "" {
			return fmt.Errorf("notify activity %s requires an event type", def.Id)
		}
	case KIND_TASK:
		if def.Assignment == nil || len(def.Assignment.Strategies) == 0 {
			return fmt.Errorf("task activity %s requires at least one assignment strategy", def.Id)
		}
		if err := r.validateProperties(def, r.schemas[KIND_TASK], def.Assignment.Properties); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateProperties(def *model.ActivityDef, schema Schema, props map[string]any) error {
	for name, spec := range schema {
		value, present := props[name]
		if !present {
			if spec.Required {
				return fmt.Errorf("activity %s is missing required property %s", def.Id, name)
			}
			continue
		}
		if err := checkPropertyType(def.Id, name, spec, value); err != nil {
			return err
		}
	}
	return nil
}

func checkPropertyType(activityId string, name string, spec PropertySpec, value any) error {
	switch spec.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("activity %s property %s must be a string", activityId, name)
		}
		if len(spec.Allowed) > 0 {
			for _, allowed := range spec.Allowed {
				if str == allowed {
					return nil
				}
			}
			return fmt.Errorf("activity %s property %s value %q is not allowed", activityId, name, str)
		}
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			return fmt.Errorf("activity %s property %s must be a number", activityId, name)
		}
	case "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("activity %s property %s must be a bool", activityId, name)
		}
	}
	return nil
}
