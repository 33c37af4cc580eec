package classify

// Outcome distinguishes a real signal from a degraded or absent one, so "no
// match" and "classifier broke" stay separate in logs and tests without
// relying on swallowed errors.
type Outcome string

// Classifier outcomes.
const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
	OutcomeUnknown  Outcome = "unknown"
)

// Signal is embedded in every classifier result.
type Signal struct {
	Outcome Outcome `json:"outcome"`
	// Reason names the degradation cause or the method that produced the
	// match ("currency_meta", "tld", ...).
	Reason string `json:"reason,omitempty"`
}

func okSignal(method string) Signal {
	return Signal{Outcome: OutcomeOK, Reason: method}
}

func unknownSignal() Signal {
	return Signal{Outcome: OutcomeUnknown}
}

func degradedSignal(reason string) Signal {
	return Signal{Outcome: OutcomeDegraded, Reason: reason}
}
