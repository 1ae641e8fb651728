package tag

import "errors"

var ErrInvoiceNotFound = errors.New("cannot tag unknown invoice")

// Kind is a closed set of status tags an invoice can carry.
type Kind string

const KindWrittenOff Kind = "WRITTEN_OFF"

func (k Kind) Valid() bool {
	return k == KindWrittenOff
}
