package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	keyLength  = 32
	saltLength = 16
)

// Argon2Params is the Argon2id cost. Memory is in KiB.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

var (
	// DefaultArgon2Params is the second recommended option of RFC 9106.
	DefaultArgon2Params = Argon2Params{Memory: 64 * 1024, Iterations: 3, Parallelism: 4}

	// MinArgon2Params is the OWASP floor; anything cheaper is rejected.
	MinArgon2Params = Argon2Params{Memory: 19 * 1024, Iterations: 2, Parallelism: 1}
)

// Validate reports whether p is at or above MinArgon2Params.
func (p Argon2Params) Validate() error {
	if p.Memory < MinArgon2Params.Memory || p.Iterations < MinArgon2Params.Iterations || p.Parallelism < MinArgon2Params.Parallelism {
		return fmt.Errorf("argon2id parameters m=%d,t=%d,p=%d are below m=%d,t=%d,p=%d",
			p.Memory, p.Iterations, p.Parallelism,
			MinArgon2Params.Memory, MinArgon2Params.Iterations, MinArgon2Params.Parallelism)
	}
	return nil
}

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrMalformedHash    = errors.New("malformed password hash")
)

// Hasher hashes passwords with a server-side pepper. New hashes are Argon2id
// in PHC format; bcrypt hashes created before the migration still verify but
// report NeedsRehash.
type Hasher struct {
	pepper string
	params Argon2Params
}

// NewHasher returns a Hasher using DefaultArgon2Params.
func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: pepper, params: DefaultArgon2Params}
}

// NewHasherWithParams returns a Hasher with a custom cost.
func NewHasherWithParams(pepper string, params Argon2Params) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{pepper: pepper, params: params}, nil
}

// Params returns the cost used for new hashes.
func (h *Hasher) Params() Argon2Params { return h.params }

// Hash returns the PHC-encoded Argon2id hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	p := h.params
	key := argon2.IDKey([]byte(password+h.pepper), salt, p.Iterations, p.Memory, p.Parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against encoded. It returns ErrPasswordMismatch on a
// wrong password and ErrMalformedHash when encoded cannot be parsed.
func (h *Hasher) Verify(password, encoded string) error {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrPasswordMismatch
		default:
			return fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
	}

	p, err := parsePHC(encoded)
	if err != nil {
		return err
	}

	computed := argon2.IDKey([]byte(password+h.pepper), p.salt, p.iterations, p.memory, p.parallelism,
		uint32(len(p.key))) // #nosec G115 - key length comes from our own encoder

	if subtle.ConstantTimeCompare(computed, p.key) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// NeedsRehash reports whether encoded was produced with a different
// algorithm or parameter set than Hash currently uses.
func (h *Hasher) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}
	p, err := parsePHC(encoded)
	if err != nil {
		return true
	}
	return p.memory != h.params.Memory || p.iterations != h.params.Iterations || p.parallelism != h.params.Parallelism
}

type phc struct {
	memory, iterations uint32
	parallelism        uint8
	salt, key          []byte
}

// parsePHC decodes $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return phc{}, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return phc{}, ErrMalformedHash
	}

	var p phc
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return phc{}, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phc{}, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return phc{}, ErrMalformedHash
	}
	return p, nil
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
