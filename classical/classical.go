// Package classical runs the classical key exchange that the quantum
// protocols are compared against: a hybrid X25519 and ML-KEM-1024 agreement
// whose shared secrets are combined with SHAKE-256.
//
// Nothing here is cryptographic grade. Key material is drawn from the same
// reproducible source as the quantum simulations, and bulk encryption is
// represented only by a timing model.
package classical

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/alan-christopher/qkdsim/qkd"
	"golang.org/x/crypto/sha3"
)

// KeyBits is the length of the derived shared key.
const KeyBits = 256

// Domain separates the key derivation from any other use of SHAKE-256.
const Domain = "qkdsim classical baseline v1"

// Simulated per-operation costs.
const (
	X25519Cost       = 50 * time.Microsecond
	MLKEMKeyGenCost  = 60 * time.Microsecond
	MLKEMEncapCost   = 70 * time.Microsecond
	MLKEMDecapCost   = 80 * time.Microsecond
	KDFCost          = 5 * time.Microsecond
	EncryptCostPerKB = 2 * time.Microsecond
)

// ErrKeyMismatch is returned when the two sides derive different keys.
var ErrKeyMismatch = errors.New("derived keys differ")

// Opts packages together the arguments of a classical exchange.
type Opts struct {
	Participants qkd.Participants

	// Eavesdrop places a passive listener on the public channel. It copies
	// every message and is never noticed.
	Eavesdrop bool

	// LinkDelay is the one-way propagation delay between the parties.
	LinkDelay time.Duration

	// PayloadBytes is the size of the message notionally encrypted under the
	// agreed key.
	PayloadBytes int

	// Rand provides key material. Must be non-nil.
	Rand qkd.Source
}

func (o Opts) validate() error {
	if o.Rand == nil {
		return fmt.Errorf("must provide Rand: %w", qkd.ErrInvalidConfig)
	}
	if o.LinkDelay < 0 {
		return fmt.Errorf("link delay %v is negative: %w", o.LinkDelay, qkd.ErrInvalidConfig)
	}
	if o.PayloadBytes < 0 {
		return fmt.Errorf("payload size %d is negative: %w", o.PayloadBytes, qkd.ErrInvalidConfig)
	}
	return nil
}

// A Result is the outcome of a classical exchange.
type Result struct {
	Eavesdropping bool

	// Accepted is always true: nothing in a classical exchange reveals a
	// passive listener.
	Accepted bool
	Detected bool

	KeyBits int

	// Intercepted counts the public bytes copied by the eavesdropper.
	Intercepted int

	Handshake  time.Duration
	Encryption time.Duration
}

// Total is the simulated time to agree on a key and encrypt the payload.
func (r Result) Total() time.Duration {
	return r.Handshake + r.Encryption
}

// Exchange agrees on a shared key between Alice and Bob and reports the
// simulated cost of doing so.
//
// Alice sends an X25519 public key and an ML-KEM encapsulation key; Bob
// answers with his X25519 public key and a ciphertext. Both sides then feed
// the two shared secrets and the transcript into SHAKE-256.
func Exchange(opts Opts) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, fmt.Errorf("classical: %w", err)
	}
	rd := &sourceReader{src: opts.Rand}

	alice, err := newParty(rd)
	if err != nil {
		return Result{}, fmt.Errorf("classical: generating %s's keys: %w", opts.Participants.Alice, err)
	}
	offer := alice.offer()

	bob, err := newParty(rd)
	if err != nil {
		return Result{}, fmt.Errorf("classical: generating %s's keys: %w", opts.Participants.Bob, err)
	}
	reply, bobKey, err := bob.accept(offer, rd)
	if err != nil {
		return Result{}, fmt.Errorf("classical: %w", err)
	}
	aliceKey, err := alice.finish(offer, reply)
	if err != nil {
		return Result{}, fmt.Errorf("classical: %w", err)
	}
	if !bytes.Equal(aliceKey, bobKey) {
		return Result{}, fmt.Errorf("classical: %w", ErrKeyMismatch)
	}

	res := Result{
		Eavesdropping: opts.Eavesdrop,
		Accepted:      true,
		KeyBits:       8 * len(aliceKey),
		Handshake:     handshakeTime(opts.LinkDelay),
		Encryption:    encryptionTime(opts.LinkDelay, opts.PayloadBytes),
	}
	if opts.Eavesdrop {
		res.Intercepted = len(offer.x25519) + len(offer.mlkem) + len(reply.x25519) + len(reply.ciphertext)
	}
	return res, nil
}

// handshakeTime covers one round trip plus the key generation, encapsulation,
// decapsulation and derivation work on both sides.
func handshakeTime(delay time.Duration) time.Duration {
	return 2*delay +
		2*X25519Cost + MLKEMKeyGenCost + // Alice
		2*X25519Cost + MLKEMEncapCost + KDFCost + // Bob
		X25519Cost + MLKEMDecapCost + KDFCost // Alice
}

func encryptionTime(delay time.Duration, payload int) time.Duration {
	kb := (payload + 1023) / 1024
	return delay + time.Duration(kb)*EncryptCostPerKB
}

// deriveKey binds both shared secrets and the public transcript into a
// KeyBits-long key.
func deriveKey(ecdhSecret, kemSecret []byte, transcript ...[]byte) []byte {
	h := sha3.NewShake256()
	write := func(b []byte) {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(b)))
		h.Write(l[:])
		h.Write(b)
	}
	write([]byte(Domain))
	write(ecdhSecret)
	write(kemSecret)
	for _, t := range transcript {
		write(t)
	}
	key := make([]byte, KeyBits/8)
	h.Read(key)
	return key
}

// A sourceReader adapts a Source to io.Reader so that key generation is as
// reproducible as the rest of the simulation.
type sourceReader struct {
	src qkd.Source
}

func (r *sourceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.src.Float64() * 256)
	}
	return len(p), nil
}
