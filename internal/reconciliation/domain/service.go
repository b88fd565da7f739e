package domain

// Input is everything a reconciliation needs. The collections are read only.
type Input struct {
	Lifecycle      []LifecycleUser
	Roster         []RosterUser
	Period         string
	UserRate       float64
	TestIdentities []string
}

type Service interface {
	// Reconcile fails only when Input.Period is not a valid month.
	Reconcile(in Input) (*Result, error)
}
