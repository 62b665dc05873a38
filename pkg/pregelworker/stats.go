package pregelworker

// superstepStats accumulates the counters a completion report carries.
// The "done" flag is superstepStats.allZero() - spec §9 preserves this
// behavior from the distillation source even though it conflates "no
// activity this superstep" with "globally converged"; it remains the
// conductor's convergence signal, not a proof.
type superstepStats struct {
	ActiveCount   uint64
	SendCount     uint64
	ReceivedCount uint64
	// Err captures the first compute-time failure observed this
	// superstep (spec §7 SHOULD behavior: surface it, don't wedge the
	// barrier). nil means no task failed.
	Err error
}

func (s superstepStats) allZero() bool {
	return s.ActiveCount == 0 && s.SendCount == 0 && s.ReceivedCount == 0
}
