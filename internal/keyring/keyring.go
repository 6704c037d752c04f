package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	bip39 "github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"

	walleterrors "github.com/cypherd/walletBackend/internal/errors"
)

// ErrDecryptionFailed is returned for tampered or otherwise undecryptable
// ciphertext. Callers that decrypt opportunistically catch it and substitute
// a sentinel instead of failing the whole operation.
var ErrDecryptionFailed = errors.New("mnemonic decryption failed")

const (
	mnemonicEntropyBits = 128 // 12 words
	mnemonicWordCount   = 12

	kdfIterations = 310_000
	kdfSalt       = "cypherd-mnemonic-v1"
)

// Account is a derived address/private-key pair. The private key is hex with
// a 0x prefix, the address is EIP-55 checksummed.
type Account struct {
	Address    string
	PrivateKey string
}

// Keyring derives accounts from mnemonics and protects mnemonics at rest
// with AES-GCM keyed by a process-wide secret.
type Keyring struct {
	aeadKey []byte
}

func New(secret string) *Keyring {
	return &Keyring{
		aeadKey: pbkdf2.Key([]byte(secret), []byte(kdfSalt), kdfIterations, 32, sha256.New),
	}
}

func (k *Keyring) GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic accepts exactly 12 words passing the wordlist checksum.
func (k *Keyring) ValidateMnemonic(mnemonic string) bool {
	words := strings.Fields(strings.TrimSpace(mnemonic))
	if len(words) != mnemonicWordCount {
		return false
	}
	return bip39.IsMnemonicValid(strings.Join(words, " "))
}

// DeriveAccount walks m/44'/60'/0'/0/<index> from the mnemonic seed.
func (k *Keyring) DeriveAccount(mnemonic string, index uint32) (*Account, error) {
	const op = "keyring.DeriveAccount"

	if !k.ValidateMnemonic(mnemonic) {
		return nil, walleterrors.NewInvalidInput(op, "invalid mnemonic phrase")
	}

	seed := bip39.NewSeed(strings.TrimSpace(mnemonic), "")
	defer clearBytes(seed)

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	key := master
	for _, idx := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		index,
	} {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key: %w", err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get EC private key: %w", err)
	}
	privBytes := priv.Serialize()
	ecdsaKey, err := crypto.ToECDSA(privBytes)
	clearBytes(privBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to ecdsa: %w", err)
	}

	return &Account{
		Address:    crypto.PubkeyToAddress(ecdsaKey.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(ecdsaKey)),
	}, nil
}

// EncryptMnemonic returns base64(nonce || ciphertext).
func (k *Keyring) EncryptMnemonic(mnemonic string) (string, error) {
	if mnemonic == "" {
		return "", errors.New("mnemonic is required")
	}
	block, err := aes.NewCipher(k.aeadKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(mnemonic), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (k *Keyring) DecryptMnemonic(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	block, err := aes.NewCipher(k.aeadKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", ErrDecryptionFailed
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

// RandomStartingBalance picks a uniform value in [1.0, 10.0) ETH, rounded to
// 6 decimal places. Only newly created wallets receive it; imports start at 0.
func (k *Keyring) RandomStartingBalance() decimal.Decimal {
	// one million discrete steps per whole ETH keeps the 6dp rounding exact
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000))
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1_000_000 + n.Int64()).Shift(-6)
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
