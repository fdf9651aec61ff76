// Package documents provides the shared model for issued business documents
// (invoices and quotes): line items, monetary totals, numbering state and the
// draft lifecycle.
package documents

// Kind discriminates the two document types. They share one shape but own
// independent numbering sequences and allowed terminal states.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindQuote   Kind = "quote"
)

// Status is the lifecycle state of a document.
type Status string

const (
	// StatusDraft is the sole initial state for both kinds. Drafts are
	// editable, deletable and carry no number.
	StatusDraft Status = "DRAFT"

	// Invoice states.
	StatusIssued    Status = "ISSUED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"

	// StatusSent is the numbered state for quotes and an intermediate state
	// for invoices.
	StatusSent Status = "SENT"

	// Quote states.
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
	StatusConverted Status = "CONVERTED"
)

// issuedStatus is the state a draft enters when it receives its number.
var issuedStatus = map[Kind]Status{
	KindInvoice: StatusIssued,
	KindQuote:   StatusSent,
}

// IssuedStatus returns the state a draft of the given kind transitions into
// at issue time.
func IssuedStatus(kind Kind) Status {
	return issuedStatus[kind]
}

var invoiceTransitions = map[Status][]Status{
	StatusDraft:  {StatusIssued},
	StatusIssued: {StatusSent, StatusCancelled},
	StatusSent:   {StatusPaid, StatusCancelled},
}

var quoteTransitions = map[Status][]Status{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusAccepted, StatusRejected, StatusExpired},
	StatusAccepted: {StatusConverted},
}

// CanTransition reports whether from -> to is a legal transition for kind.
func CanTransition(kind Kind, from, to Status) bool {
	var table map[Status][]Status
	switch kind {
	case KindInvoice:
		table = invoiceTransitions
	case KindQuote:
		table = quoteTransitions
	default:
		return false
	}
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether status is terminal for kind.
func IsTerminal(kind Kind, status Status) bool {
	switch kind {
	case KindInvoice:
		return status == StatusPaid || status == StatusCancelled
	case KindQuote:
		return status == StatusRejected || status == StatusExpired || status == StatusConverted
	}
	return false
}

// ValidStatus reports whether status belongs to kind's state machine.
func ValidStatus(kind Kind, status Status) bool {
	if status == StatusDraft {
		return true
	}
	switch kind {
	case KindInvoice:
		switch status {
		case StatusIssued, StatusSent, StatusPaid, StatusCancelled:
			return true
		}
	case KindQuote:
		switch status {
		case StatusSent, StatusAccepted, StatusRejected, StatusExpired, StatusConverted:
			return true
		}
	}
	return false
}
