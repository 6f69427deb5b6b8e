package transform

// State holds the cumulative model matrix and the point set derived from it.
//
// Invariant: points[i] == Apply(model, fixture[i]) for every i, after every
// call to New, Compose and Reset. Those are the only mutating entry points.
//
// State is not safe for concurrent use; callers that share one must
// serialize Compose and Reset (see collab.SessionState).
type State struct {
	fixture Fixture
	model   Matrix4
	points  Fixture
}

// New returns a State with an identity model over fixture.
func New(fixture Fixture) *State {
	s := &State{fixture: fixture}
	s.Reset()
	return s
}

// Compose pre-multiplies m onto the model (model = m * model), so m acts in
// the current world frame after everything composed so far, then recomputes
// every derived point from the fixture.
func (s *State) Compose(m Matrix4) {
	s.model = Multiply(m, s.model)
	s.recompute()
}

// Reset restores the identity model and the original points.
func (s *State) Reset() {
	s.model = Identity()
	s.recompute()
}

func (s *State) recompute() {
	for i, p := range s.fixture {
		s.points[i] = Apply(s.model, p)
	}
}

// Model returns the current cumulative matrix.
func (s *State) Model() Matrix4 {
	return s.model
}

// Points returns the transformed point set.
func (s *State) Points() Fixture {
	return s.points
}

// Fixture returns the untransformed point set.
func (s *State) Fixture() Fixture {
	return s.fixture
}
