package models

// Outcome is the business result of a tracker operation. Every outcome is
// paired with exactly one user-visible message, except OutcomeIgnored.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeCreated
	OutcomeAlreadyTracked
	OutcomeRemoved
	OutcomeNotFound
	OutcomeInvalidAddress
	OutcomeProviderError
	OutcomeNoData
	OutcomePrompted
	// OutcomeFailed is an internal failure such as a store error.
	OutcomeFailed
	// OutcomeIgnored means the input was not addressed to the bot; nothing is sent.
	OutcomeIgnored
)

var outcomeNames = map[Outcome]string{
	OutcomeOK:             "ok",
	OutcomeCreated:        "created",
	OutcomeAlreadyTracked: "already_tracked",
	OutcomeRemoved:        "removed",
	OutcomeNotFound:       "not_found",
	OutcomeInvalidAddress: "invalid_address",
	OutcomeProviderError:  "provider_error",
	OutcomeNoData:         "no_data",
	OutcomePrompted:       "prompted",
	OutcomeFailed:         "failed",
	OutcomeIgnored:        "ignored",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}
