package reasoning

// #region namespace

// Namespace selects which producer's values a metadata lookup reads.
type Namespace string

const (
	NamespaceInput Namespace = "input" // caller-supplied values
	NamespaceStep  Namespace = "step"  // values merged from step execution
)

// #endregion namespace

// #region metadata

// Metadata is the typed channel between the chain and its engines.
// Each section has exactly one writer.
type Metadata struct {
	Input      map[string]string
	Facts      map[string]string
	Reflection ReflectionSignal
	Complexity ComplexitySignal
	Branching  BranchingSignal
}

// ReflectionSignal is written by the chain after each reflection pass.
type ReflectionSignal struct {
	Passes             int
	LastRecommendation Recommendation
	LastScore          float64
	Adjustments        ReflectionAdjustments
}

// ComplexitySignal is written by the chain after each complexity pass.
type ComplexitySignal struct {
	Level          ComplexityLevel
	Metrics        ComplexityMetrics
	Adjustments    int
	PredictedLevel ComplexityLevel
	PredictedScore float64
}

// BranchingSignal is written by the chain after each branching pass.
type BranchingSignal struct {
	ActiveBranches []string
	Activations    int
}

// NewMetadata copies caller input into a fresh metadata record.
func NewMetadata(input map[string]string) Metadata {
	m := Metadata{
		Input: make(map[string]string, len(input)),
		Facts: make(map[string]string),
	}
	for k, v := range input {
		m.Input[k] = v
	}
	return m
}

// Get returns a value from one namespace.
func (m Metadata) Get(ns Namespace, key string) (string, bool) {
	switch ns {
	case NamespaceInput:
		v, ok := m.Input[key]
		return v, ok
	case NamespaceStep:
		v, ok := m.Facts[key]
		return v, ok
	}
	return "", false
}

// MergeFacts copies step data into Facts, overwriting earlier values.
func (m *Metadata) MergeFacts(data map[string]string) {
	if len(data) == 0 {
		return
	}
	if m.Facts == nil {
		m.Facts = make(map[string]string, len(data))
	}
	for k, v := range data {
		m.Facts[k] = v
	}
}

// #endregion metadata
