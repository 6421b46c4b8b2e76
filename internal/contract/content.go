package contract

import (
	"math"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Data is everything the contract body is rendered from.
type Data struct {
	ContractNumber    string
	AgencyName        string
	IssuedOn          time.Time
	ClientName        string
	ClientCompany     string
	ClientSignerName  string
	ClientSignerTitle string
	SpeakerName       string
	EventTitle        string
	EventDate         *time.Time
	EventLocation     string
	EventType         string
	AttendeeCount     int
	SpeakerFee        float64
	TotalAmount       float64
	DepositPercent    float64
	PaymentTerms      string
	AdditionalTerms   string
}

// Virtual reports whether the logistics clause should describe a remote engagement.
func (d Data) Virtual() bool { return d.EventType == "virtual" }

func (d Data) Deposit() float64 {
	return math.Round(d.TotalAmount*d.DepositPercent) / 100
}

func (d Data) Balance() float64 {
	return math.Round((d.TotalAmount-d.Deposit())*100) / 100
}

func dataFrom(c *Contract, agency string) Data {
	return Data{
		ContractNumber:    c.ContractNumber,
		AgencyName:        agency,
		IssuedOn:          c.CreatedAt,
		ClientName:        c.ClientName,
		ClientCompany:     c.ClientCompany,
		ClientSignerName:  c.ClientSignerName,
		ClientSignerTitle: c.ClientSignerTitle,
		SpeakerName:       c.SpeakerName,
		EventTitle:        c.EventTitle,
		EventDate:         c.EventDate,
		EventLocation:     c.EventLocation,
		EventType:         c.EventType,
		AttendeeCount:     c.AttendeeCount,
		SpeakerFee:        c.SpeakerFee,
		TotalAmount:       c.TotalAmount,
		DepositPercent:    c.DepositPercent,
		PaymentTerms:      c.PaymentTerms,
		AdditionalTerms:   c.AdditionalTerms,
	}
}

var printer = message.NewPrinter(language.AmericanEnglish)

var funcs = template.FuncMap{
	"money": func(v float64) string { return printer.Sprintf("USD %.2f", v) },
	"pct":   func(v float64) string { return printer.Sprintf("%.0f%%", v) },
	"date": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "a date to be confirmed in writing"
		}
		return t.UTC().Format("January 2, 2006")
	},
	"day":     func(t time.Time) string { return t.UTC().Format("January 2, 2006") },
	"orTBD":   func(s string) string { return orDefault(s, "to be confirmed") },
	"trimmed": strings.TrimSpace,
}

var bodyTemplate = template.Must(template.New("contract").Funcs(funcs).Parse(`SPEAKER ENGAGEMENT AGREEMENT
Contract No. {{.ContractNumber}}
Issued {{day .IssuedOn}}

This agreement is made between {{.ClientName}}{{if .ClientCompany}} of {{.ClientCompany}}{{end}} ("Client"), {{.SpeakerName}} ("Speaker"), and {{.AgencyName}} ("Agency").

1. ENGAGEMENT
Speaker will appear at "{{.EventTitle}}" on {{date .EventDate}}{{if .EventLocation}} at {{.EventLocation}}{{end}}.{{if gt .AttendeeCount 0}} Expected audience: {{.AttendeeCount}} attendees.{{end}}

2. LOGISTICS
{{- if .Virtual}}
The engagement will be delivered remotely. Client will provide the streaming platform, a meeting link and a technical rehearsal slot no later than 48 hours before the event. Speaker is responsible for a stable connection, camera and microphone.
{{- else}}
The engagement will be delivered in person. Client will provide stage, audio-visual equipment and a green room. Travel and accommodation are arranged as agreed in the firm offer and are not included in the fee unless stated below.
{{- end}}

3. FEES
Speaker fee: {{money .SpeakerFee}}
Total contract amount: {{money .TotalAmount}}

4. PAYMENT SCHEDULE
Deposit of {{pct .DepositPercent}} ({{money .Deposit}}) is due upon execution of this agreement.
Balance of {{money .Balance}} is due 14 days before the event.
Payment terms: {{orTBD .PaymentTerms}}

5. CANCELLATION
The deposit is non-refundable if Client cancels within 30 days of the event. If Speaker cancels, all payments received are refunded in full.
{{- with trimmed .AdditionalTerms}}

6. ADDITIONAL TERMS
{{.}}
{{- end}}

SIGNATURES
Client: {{.ClientSignerName}}{{if .ClientSignerTitle}}, {{.ClientSignerTitle}}{{end}}
Speaker: {{.SpeakerName}}
`))

// GenerateContent renders the contract body. The same Data always yields the same text.
func GenerateContent(d Data) (string, error) {
	var b strings.Builder
	if err := bodyTemplate.Execute(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
