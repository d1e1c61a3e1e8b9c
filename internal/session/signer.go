package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	jwtx "github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "slidebox session cookie"

// signer computes the keyed digest appended to the cookie payload.
type signer struct {
	method *jwtx.SigningMethodHMAC
	key    []byte
}

func newSigner(algorithm, salt string) (*signer, error) {
	if salt == "" {
		return nil, ErrMissingSalt
	}
	method, ok := jwtx.GetSigningMethod(algorithm).(*jwtx.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	// one key per algorithm, sized to the digest
	key := make([]byte, method.Hash.Size())
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(salt), nil, []byte(keyInfo+" "+method.Alg())), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	return &signer{method: method, key: key}, nil
}

func (s *signer) sign(payload []byte) (string, error) {
	return s.method.Sign(string(payload), s.key)
}

// verify compares in constant time.
func (s *signer) verify(payload []byte, signature string) error {
	if err := s.method.Verify(string(payload), signature, s.key); err != nil {
		if errors.Is(err, jwtx.ErrSignatureInvalid) {
			return apperrors.ErrInvalidSignature
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidSignature, err)
	}
	return nil
}
