package harness

// Candidate is one version of generated code at iteration index Tau.
// Immutable once created; a repair step produces a new Candidate whose
// Parent back-reference exists for lineage tracing only.
type Candidate struct {
	Source string
	Tau    int
	Parent *Candidate
}

// NewCandidate wraps the initial generation at tau 0.
func NewCandidate(source string) *Candidate {
	return &Candidate{Source: source, Tau: 0}
}

// Revise creates the successor candidate with source as its code. Tau is
// strictly increasing along the lineage.
func (c *Candidate) Revise(source string) *Candidate {
	return &Candidate{Source: source, Tau: c.Tau + 1, Parent: c}
}
