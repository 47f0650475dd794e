package txbuilder

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Encoder turns a draft into the payload string handed to SendTransaction.
type Encoder interface {
	Encode(d Draft) (string, error)
}

// PlaceholderEncoder renders a human-readable summary of the draft instead of
// a wire transaction.
type PlaceholderEncoder struct{}

func (PlaceholderEncoder) Encode(d Draft) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "tx fee_payer=%s signers=%d instructions=%d", d.FeePayer, len(d.Signers), len(d.Instructions))
	for i, ix := range d.Instructions {
		data, err := ix.Data()
		if err != nil {
			return "", fmt.Errorf("instruction %d data: %w", i, err)
		}
		fmt.Fprintf(&b, " [%d program=%s accounts=%d data=%s]",
			i, ix.ProgramID(), len(ix.Accounts()), base64.StdEncoding.EncodeToString(data))
	}
	return b.String(), nil
}
