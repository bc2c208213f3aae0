// Package rollout provides deterministic user bucketing for variant assignment.
package rollout

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const (
	// BucketSpace is the number of buckets; reference weights are basis points.
	BucketSpace = 10000

	// prefixHexDigits is the digest prefix interpreted as the bucket source (16 bits).
	prefixHexDigits = 4

	// AnonymousUser is the seed used when a context carries no userId.
	// Every anonymous request for a flag lands in the same bucket.
	AnonymousUser = "anon"
)

// Hasher returns a lowercase hex digest of its input.
type Hasher func(string) string

// Supported hasher names.
const (
	HashSHA1   = "sha1"
	HashXXHash = "xxhash"
)

// SHA1Hex is the default hasher. Buckets computed with it match every other
// deployment of the evaluator, so changing it reshuffles all users.
func SHA1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// XXHashHex hashes with xxHash64 and returns the 16-digit big-endian hex form.
func XXHashHex(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// HasherByName resolves a configured hasher name.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", HashSHA1:
		return SHA1Hex, nil
	case HashXXHash:
		return XXHashHex, nil
	default:
		return nil, fmt.Errorf("unsupported bucket hash: %s", name)
	}
}

// Seed builds the bucketing seed "flagKey:userID".
func Seed(flagKey, userID string) string {
	return flagKey + ":" + userID
}

// Bucket returns a deterministic bucket in [0, BucketSpace) for seed.
// The first four hex digits of the digest are read as an unsigned 16-bit
// integer and reduced modulo BucketSpace. A nil hasher means SHA1Hex.
func Bucket(seed string, hasher Hasher) int {
	if hasher == nil {
		hasher = SHA1Hex
	}
	digest := hasher(seed)
	if len(digest) < prefixHexDigits {
		return 0
	}
	n, err := strconv.ParseUint(digest[:prefixHexDigits], 16, 16)
	if err != nil {
		return 0
	}
	return int(n % BucketSpace)
}
