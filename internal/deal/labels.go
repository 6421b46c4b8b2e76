package deal

import "strings"

// LabelMapping is the pipeline position an external CRM label implies.
type LabelMapping struct {
	Status   Status
	Priority Priority
}

// labelTable maps external messaging-integration labels (lowercased) to pipeline positions.
var labelTable = map[string]LabelMapping{
	"new lead":      {StatusLead, PriorityLow},
	"lead":          {StatusLead, PriorityMedium},
	"mql":           {StatusQualified, PriorityMedium},
	"qualified":     {StatusQualified, PriorityMedium},
	"sql":           {StatusNegotiation, PriorityMedium},
	"proposal sent": {StatusProposal, PriorityHigh},
	"hot":           {StatusNegotiation, PriorityUrgent},
	"won":           {StatusWon, PriorityHigh},
	"closed won":    {StatusWon, PriorityHigh},
	"disqualified":  {StatusLost, PriorityLow},
	"lost":          {StatusLost, PriorityLow},
	"closed lost":   {StatusLost, PriorityLow},
}

var defaultMapping = LabelMapping{StatusLead, PriorityMedium}

// MapLabel returns the mapping for a label and whether the label was recognized.
func MapLabel(label string) (LabelMapping, bool) {
	m, ok := labelTable[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return defaultMapping, false
	}
	return m, true
}

// pickLabel chooses the first recognized label, falling back to the first non-empty one.
func pickLabel(primary string, others []string) string {
	candidates := append([]string{primary}, others...)
	for _, l := range candidates {
		if _, ok := MapLabel(l); ok {
			return strings.TrimSpace(l)
		}
	}
	for _, l := range candidates {
		if strings.TrimSpace(l) != "" {
			return strings.TrimSpace(l)
		}
	}
	return ""
}
