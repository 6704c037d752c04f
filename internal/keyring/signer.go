package keyring

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignedMessage is the result of signing text with the personal-message
// scheme: the prefixed hash is signed and the recovery id is shifted to the
// conventional 27/28 range.
type SignedMessage struct {
	Signature   string
	MessageHash string
	Address     string
}

// Verification distinguishes an address mismatch (IsValid=false with a
// recovered address) from a recovery failure, which is reported as an error.
type Verification struct {
	IsValid          bool
	RecoveredAddress string
}

func SignMessage(privateKeyHex, message string) (*SignedMessage, error) {
	if privateKeyHex == "" || message == "" {
		return nil, errors.New("private key and message are required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, err
	}

	hash := accounts.TextHash([]byte(message))
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27

	return &SignedMessage{
		Signature:   hexutil.Encode(sig),
		MessageHash: hexutil.Encode(hash),
		Address:     crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

func VerifySignature(message, signature, address string) (*Verification, error) {
	if message == "" || signature == "" || address == "" {
		return nil, errors.New("message, signature, and address are required")
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return nil, err
	}
	if len(sig) != crypto.SignatureLength {
		return nil, errors.New("signature must be 65 bytes")
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return nil, errors.New("invalid recovery id")
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return nil, err
	}
	recovered := crypto.PubkeyToAddress(*pub).Hex()

	return &Verification{
		IsValid:          strings.EqualFold(recovered, address),
		RecoveredAddress: recovered,
	}, nil
}

// HashMessage returns the hex personal-message hash of the text.
func HashMessage(message string) string {
	return hexutil.Encode(accounts.TextHash([]byte(message)))
}
