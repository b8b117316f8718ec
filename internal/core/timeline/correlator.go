package timeline

// stepCorrelator remembers when each step's trigger record was observed so
// a later finish record sharing the step identifier can compute elapsed
// duration. Scoped to a single Build invocation and discarded with it.
//
// A repeated trigger for the same step id overwrites the earlier instant,
// so a finish joins against the most recently seen trigger for that id.
// That mirrors the recorded exports' behavior; entries are never removed.
type stepCorrelator struct {
	triggers map[string]string
}

func newStepCorrelator() *stepCorrelator {
	return &stepCorrelator{triggers: make(map[string]string)}
}

// recordTrigger stores the trigger instant for a step id.
func (c *stepCorrelator) recordTrigger(stepID, timestamp string) {
	if stepID == "" || timestamp == "" {
		return
	}
	c.triggers[stepID] = timestamp
}

// lookup returns the recorded trigger instant for a step id, or "" when no
// trigger has been seen.
func (c *stepCorrelator) lookup(stepID string) string {
	return c.triggers[stepID]
}
