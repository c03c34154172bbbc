package classical

import (
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"golang.org/x/crypto/curve25519"
)

// An offer is the initiator's public message.
type offer struct {
	x25519 []byte
	mlkem  []byte
}

// A reply is the responder's public message.
type reply struct {
	x25519     []byte
	ciphertext []byte
}

// A party holds one side's ephemeral key pairs.
type party struct {
	scalar []byte
	public []byte
	pk     *mlkem1024.PublicKey
	sk     *mlkem1024.PrivateKey
}

func newParty(rd io.Reader) (*party, error) {
	scalar := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rd, scalar); err != nil {
		return nil, fmt.Errorf("reading X25519 scalar: %w", err)
	}
	public, err := curve25519.X25519(scalar, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("X25519 public key: %w", err)
	}
	pk, sk, err := mlkem1024.GenerateKeyPair(rd)
	if err != nil {
		return nil, fmt.Errorf("ML-KEM key pair: %w", err)
	}
	return &party{scalar: scalar, public: public, pk: pk, sk: sk}, nil
}

func (p *party) offer() offer {
	ek := make([]byte, mlkem1024.PublicKeySize)
	p.pk.Pack(ek)
	return offer{x25519: p.public, mlkem: ek}
}

// accept answers an offer, returning the reply and the responder's key.
func (p *party) accept(o offer, rd io.Reader) (reply, []byte, error) {
	ecdh, err := curve25519.X25519(p.scalar, o.x25519)
	if err != nil {
		return reply{}, nil, fmt.Errorf("X25519 agreement: %w", err)
	}
	var ek mlkem1024.PublicKey
	if err := ek.Unpack(o.mlkem); err != nil {
		return reply{}, nil, fmt.Errorf("unpacking encapsulation key: %w", err)
	}
	seed := make([]byte, mlkem1024.EncapsulationSeedSize)
	if _, err := io.ReadFull(rd, seed); err != nil {
		return reply{}, nil, fmt.Errorf("reading encapsulation seed: %w", err)
	}
	ct := make([]byte, mlkem1024.CiphertextSize)
	ss := make([]byte, mlkem1024.SharedKeySize)
	ek.EncapsulateTo(ct, ss, seed)

	r := reply{x25519: p.public, ciphertext: ct}
	return r, deriveKey(ecdh, ss, o.x25519, o.mlkem, r.x25519, r.ciphertext), nil
}

// finish completes the initiator's side of the exchange.
func (p *party) finish(o offer, r reply) ([]byte, error) {
	if len(r.ciphertext) != mlkem1024.CiphertextSize {
		return nil, fmt.Errorf("ciphertext is %d bytes, want %d", len(r.ciphertext), mlkem1024.CiphertextSize)
	}
	ecdh, err := curve25519.X25519(p.scalar, r.x25519)
	if err != nil {
		return nil, fmt.Errorf("X25519 agreement: %w", err)
	}
	ss := make([]byte, mlkem1024.SharedKeySize)
	p.sk.DecapsulateTo(ss, r.ciphertext)
	return deriveKey(ecdh, ss, o.x25519, o.mlkem, r.x25519, r.ciphertext), nil
}
