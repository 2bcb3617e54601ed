package conformance

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/checkflow/checkflow/pkg/errors"
)

// ModelDefinition is the on-disk YAML form of a process model.
//
//	name: order_to_cash
//	display_name: Order to Cash
//	version: "1.0.0"
//	activities:
//	  - name: OrderCreated
//	    kind: start
//	    aliases: [OrderCreate, SalesOrderCreated]
//	transitions:
//	  - from: OrderCreated
//	    to: DeliveryCreated
//	sequences:
//	  - [OrderCreated, DeliveryCreated, InvoiceCreated]
//	parallel:
//	  - after: DeliveryCreated
//	    activities: [PickingCompleted, PackingCompleted]
//	    before: GoodsIssued
type ModelDefinition struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`

	Activities []ActivityDefinition `yaml:"activities"`

	Transitions []TransitionDefinition `yaml:"transitions"`
	Sequences   [][]string             `yaml:"sequences"`
	Parallel    []ParallelDefinition   `yaml:"parallel"`
}

// ActivityDefinition declares one activity in a model file.
type ActivityDefinition struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Kind        string   `yaml:"kind"`
	Aliases     []string `yaml:"aliases"`
	Description string   `yaml:"description"`
}

// TransitionDefinition declares one edge in a model file.
type TransitionDefinition struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Optional  bool   `yaml:"optional"`
	Condition string `yaml:"condition"`
}

// ParallelDefinition declares a block of activities that may run in any
// order between a predecessor and a successor.
type ParallelDefinition struct {
	After      string   `yaml:"after"`
	Activities []string `yaml:"activities"`
	Before     string   `yaml:"before"`
}

// LoadModelFile reads and builds a process model from a YAML file.
func LoadModelFile(path string) (*ProcessModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "read model file").WithContext("path", path)
	}
	return ParseModelDefinition(data)
}

// ParseModelDefinition builds a process model from YAML bytes.
func ParseModelDefinition(data []byte) (*ProcessModel, error) {
	var def ModelDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidModelFile, "invalid model definition")
	}
	return def.Build()
}

// Build constructs the process model the definition describes.
func (def *ModelDefinition) Build() (*ProcessModel, error) {
	if len(def.Activities) == 0 {
		return nil, errors.New(errors.CodeEmptyModel, "model definition declares no activities")
	}

	b := NewBuilder(def.Name, def.DisplayName).Describe(def.Description)
	if def.Version != "" {
		b.Version(def.Version)
	}

	for _, a := range def.Activities {
		kind := ActivityKind(a.Kind)
		if a.Kind == "" {
			kind = ActivityIntermediate
		}
		b.AddActivity(Activity{
			Name:         a.Name,
			DisplayName:  a.DisplayName,
			Kind:         kind,
			EventAliases: a.Aliases,
			Description:  a.Description,
		})
	}

	for _, t := range def.Transitions {
		if t.Optional {
			b.AddOptionalTransition(t.From, t.To)
		} else {
			b.AddTransition(t.From, t.To)
		}
	}

	for _, seq := range def.Sequences {
		b.AddSequence(seq...)
	}

	for _, p := range def.Parallel {
		b.AddParallel(p.After, p.Activities, p.Before)
	}

	return b.Build()
}
