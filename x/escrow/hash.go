package escrow

import (
	"crypto/sha256"
	"strings"

	"github.com/fymoney/ledger/errors"
)

// RecipientHashLength is the size of a recipient identifier hash.
const RecipientHashLength = sha256.Size

// RecipientHash converts an off-chain identifier, usually an email
// address, into its privacy preserving on-ledger form. The identifier
// is trimmed and lowercased before hashing so that cosmetic variants
// resolve to the same escrow address.
func RecipientHash(identifier string) ([]byte, error) {
	normalized := strings.ToLower(strings.TrimSpace(identifier))
	if normalized == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "recipient identifier")
	}
	sum := sha256.Sum256([]byte(normalized))
	return sum[:], nil
}

func validateRecipientHash(h []byte) error {
	if len(h) != RecipientHashLength {
		return errors.Wrapf(errors.ErrInput, "recipient hash must be %d bytes", RecipientHashLength)
	}
	return nil
}
