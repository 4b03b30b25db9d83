package semantics

// Insights is the flow-sensitive bookkeeping carried across a function
// body: loop state, return coverage, and the initialization sets for local
// variables and (in constructors) own fields.
type Insights struct {
	IsInLoop             bool
	ReturnFound          bool
	BreakOrContinueFound bool

	uninitializedVariables map[string]bool
	initializedOwnFields   map[string]bool
}

func NewInsights() *Insights {
	return &Insights{
		uninitializedVariables: map[string]bool{},
		initializedOwnFields:   map[string]bool{},
	}
}

// Clone copies the insights so a branch can be verified independently.
func (in *Insights) Clone() *Insights {
	cloned := &Insights{
		IsInLoop:             in.IsInLoop,
		ReturnFound:          in.ReturnFound,
		BreakOrContinueFound: in.BreakOrContinueFound,

		uninitializedVariables: map[string]bool{},
		initializedOwnFields:   map[string]bool{},
	}
	for name := range in.uninitializedVariables {
		cloned.uninitializedVariables[name] = true
	}
	for name := range in.initializedOwnFields {
		cloned.initializedOwnFields[name] = true
	}
	return cloned
}

// MergeWith joins the facts of two branches: every path must return for
// ReturnFound to survive; a variable possibly uninitialized in either
// branch stays uninitialized; an own field is initialized only if both
// branches initialized it.
func (in *Insights) MergeWith(other *Insights) {
	if in.IsInLoop != other.IsInLoop {
		panic("different IsInLoop values should not occur")
	}
	in.ReturnFound = in.ReturnFound && other.ReturnFound

	for name := range other.uninitializedVariables {
		in.uninitializedVariables[name] = true
	}
	for name := range in.initializedOwnFields {
		if !other.initializedOwnFields[name] {
			delete(in.initializedOwnFields, name)
		}
	}
}

func (in *Insights) IsUninitialized(name string) bool {
	return in.uninitializedVariables[name]
}

func (in *Insights) AddUninitialized(name string) {
	in.uninitializedVariables[name] = true
}

func (in *Insights) MarkAsInitialized(name string) {
	delete(in.uninitializedVariables, name)
}

func (in *Insights) MarkOwnFieldAsInitialized(field string) {
	in.initializedOwnFields[field] = true
}

func (in *Insights) IsOwnFieldInitialized(field string) bool {
	return in.initializedOwnFields[field]
}
