package contract

var transitions = map[Status]map[Status]bool{
	StatusDraft:           {StatusSent: true, StatusCancelled: true},
	StatusSent:            {StatusPartiallySigned: true, StatusCancelled: true},
	StatusPartiallySigned: {StatusFullyExecuted: true, StatusCancelled: true},
	StatusFullyExecuted:   {},
	StatusCancelled:       {},
}

func canTransition(from, to Status) bool {
	return transitions[from][to]
}

// signaturesAgree reports whether a declared status matches the signatures on file.
func signaturesAgree(c *Contract, to Status) bool {
	switch to {
	case StatusPartiallySigned:
		return c.Signatures() == 1
	case StatusFullyExecuted:
		return c.Signatures() == 2
	}
	return true
}

// derivedStatusSQL computes the status from both signature columns.
const derivedStatusSQL = `CASE
	WHEN client_signed_at IS NOT NULL AND speaker_signed_at IS NOT NULL THEN 'fully_executed'
	WHEN client_signed_at IS NOT NULL OR speaker_signed_at IS NOT NULL THEN 'partially_signed'
	ELSE status END`

const executedAtSQL = `CASE
	WHEN client_signed_at IS NOT NULL AND speaker_signed_at IS NOT NULL AND executed_at IS NULL THEN ?
	ELSE executed_at END`
