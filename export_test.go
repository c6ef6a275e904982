package probez

// ResetForTesting restores the pristine dispatch state: no process
// default, not frozen, and every cached call site verdict invalidated.
// The generation counter is advanced, never rewound, so monotonicity
// holds across resets.
func ResetForTesting() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFrozen = false
	defaultDispatch.Store(nil)
	generation.Add(1)
	levelHint.Store(int32(levelOff))
	siteRegistry.mu.Lock()
	siteRegistry.sites = nil
	siteRegistry.mu.Unlock()
}

// Generation exposes the interest generation counter to tests.
func Generation() uint64 {
	return generation.Load()
}
