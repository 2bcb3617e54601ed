package conformance

// Builder constructs process models fluently. Errors from transition
// declarations are latched: the first error stops further mutation and is
// returned from Build, preserving fail-fast construction without forcing
// an error check on every call.
//
//	model, err := conformance.NewBuilder("o2c", "Order to Cash").
//		AddActivity(Activity{Name: "OrderCreated", Kind: ActivityStart}).
//		AddActivity(Activity{Name: "InvoiceCreated", Kind: ActivityEnd}).
//		AddSequence("OrderCreated", "InvoiceCreated").
//		Build()
type Builder struct {
	model *ProcessModel
	err   error
}

// NewBuilder creates a builder for a model with the given identity.
func NewBuilder(name, displayName string) *Builder {
	return &Builder{model: NewProcessModel(name, displayName)}
}

// Describe sets the model description.
func (b *Builder) Describe(description string) *Builder {
	if b.err == nil {
		b.model.Description = description
	}
	return b
}

// Version sets the model version string.
func (b *Builder) Version(version string) *Builder {
	if b.err == nil {
		b.model.Version = version
	}
	return b
}

// AddActivity declares an activity. An empty Kind defaults to
// ActivityIntermediate.
func (b *Builder) AddActivity(a Activity) *Builder {
	if b.err != nil {
		return b
	}
	if a.Kind == "" {
		a.Kind = ActivityIntermediate
	}
	if a.DisplayName == "" {
		a.DisplayName = a.Name
	}
	b.model.AddActivity(a)
	return b
}

// AddTransition declares a mandatory edge between two activities.
func (b *Builder) AddTransition(source, target string) *Builder {
	return b.addTransition(Transition{Source: source, Target: target, Mandatory: true})
}

// AddOptionalTransition declares a non-mandatory edge.
func (b *Builder) AddOptionalTransition(source, target string) *Builder {
	return b.addTransition(Transition{Source: source, Target: target})
}

func (b *Builder) addTransition(t Transition) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.model.AddTransition(t)
	return b
}

// AddSequence wires the activities pairwise in order: a1 -> a2 -> ... -> an,
// all mandatory.
func (b *Builder) AddSequence(names ...string) *Builder {
	for i := 0; i+1 < len(names); i++ {
		b.AddTransition(names[i], names[i+1])
	}
	return b
}

// AddParallel declares a block of activities that may run in any order
// between a predecessor and a successor: pred -> each (mandatory), each ->
// succ (mandatory), and non-mandatory edges between every pair of block
// members in both directions.
func (b *Builder) AddParallel(pred string, parallel []string, succ string) *Builder {
	for _, name := range parallel {
		b.AddTransition(pred, name)
		b.AddTransition(name, succ)
	}
	for i, first := range parallel {
		for _, second := range parallel[i+1:] {
			b.AddOptionalTransition(first, second)
			b.AddOptionalTransition(second, first)
		}
	}
	return b
}

// Build returns the constructed model, or the first error encountered
// during construction.
func (b *Builder) Build() (*ProcessModel, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.model, nil
}
