package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	EnvelopeFonctionnement Envelope = "Fonctionnement"
	EnvelopeInvestissement Envelope = "Investissement"
)

const (
	StatusVotee       Status = "Votée"
	StatusEngagee     Status = "Engagée"
	StatusServiceFait Status = "Service fait"
)

// DefaultType is applied whenever a record carries no type.
const DefaultType = "Autre"

type (
	Envelope string

	// Status is the procurement workflow stage, ordered
	// Votée -> Engagée -> Service fait.
	Status string

	// Expense is a single budget line. Field names follow the persisted
	// JSON document, which is written wholesale on every save.
	Expense struct {
		ID       string   `json:"id"`
		Date     string   `json:"date"` // ISO YYYY-MM-DD, may be empty
		Label    string   `json:"label"`
		Type     string   `json:"type"`
		Envelope Envelope `json:"envelope"`
		Project  string   `json:"project"`
		Status   Status   `json:"status"`
		Amount   Amount   `json:"amount"`
		Owner    string   `json:"owner"`
		Supplier string   `json:"supplier"`

		QuoteNumber   string `json:"quoteNumber"`
		QuoteDate     string `json:"quoteDate"`
		PONumber      string `json:"poNumber"`
		PODate        string `json:"poDate"`
		InvoiceNumber string `json:"invoiceNumber"`
		InvoiceDate   string `json:"invoiceDate"`
	}

	// Budgets holds the allocated amount per envelope. Allocations are
	// not validated; negative or zero budgets are allowed.
	Budgets struct {
		Fonctionnement Amount `json:"Fonctionnement"`
		Investissement Amount `json:"Investissement"`
	}

	// Document is the unit of persistence: the whole dataset, replaced
	// wholesale on every save. Last writer wins.
	Document struct {
		Budgets  Budgets   `json:"budgets"`
		Expenses []Expense `json:"expenses"`
	}
)

// Envelopes lists the two fixed budget envelopes.
var Envelopes = []Envelope{EnvelopeFonctionnement, EnvelopeInvestissement}

// Statuses lists the workflow stages in order.
var Statuses = []Status{StatusVotee, StatusEngagee, StatusServiceFait}

// Types lists the expense category labels.
var Types = []string{
	"Fournitures",
	"Équipement",
	"Consommables",
	"Logiciel",
	"Mission",
	"Maintenance",
	"Prestation",
	DefaultType,
}

var (
	ErrEmptyLabel      = errors.New("empty label")
	ErrInvalidEnvelope = errors.New("invalid envelope")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidType     = errors.New("invalid type")
	ErrNegativeAmount  = errors.New("negative amount")
)

// NewID returns a fresh opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

func (e Envelope) Valid() bool {
	return e == EnvelopeFonctionnement || e == EnvelopeInvestissement
}

func (s Status) Valid() bool {
	return s == StatusVotee || s == StatusEngagee || s == StatusServiceFait
}

// ValidType reports whether t is one of the known category labels.
func ValidType(t string) bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Label)) == 0 {
		return ErrEmptyLabel
	}
	if !e.Envelope.Valid() {
		return ErrInvalidEnvelope
	}
	if !e.Status.Valid() {
		return ErrInvalidStatus
	}
	if !ValidType(e.Type) {
		return ErrInvalidType
	}
	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// SearchText is the haystack the free-text filter matches against.
func (e Expense) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		e.Label, e.Project, e.Owner, e.Supplier,
		e.QuoteNumber, e.PONumber, e.InvoiceNumber,
	}, " "))
}

// ForEnvelope returns the allocated budget for the given envelope.
func (b Budgets) ForEnvelope(env Envelope) Amount {
	if env == EnvelopeInvestissement {
		return b.Investissement
	}
	return b.Fonctionnement
}

// EmptyDocument returns the default document served when nothing is stored.
func EmptyDocument() Document {
	return Document{Expenses: []Expense{}}
}
