package helper

import (
	"crypto/sha256"
	"encoding/base32"

	"github.com/google/uuid"
)

// crockford is Douglas Crockford's base32 alphabet, lowercased. It drops the
// easily-confused letters i, l, o, u.
var crockford = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

// UserPseudonym maps a tag UUID to a stable upstream user identifier. The
// upstream sees the same string for the same user on every request but cannot
// reverse it to the UUID.
func UserPseudonym(tag uuid.UUID) string {
	sum := sha256.Sum256(tag[:])
	return crockford.EncodeToString(sum[:])
}

// DeriveResponseID builds the response id returned to the client in place of
// the upstream's. The prefix is stable per last tag so a client can correlate
// its responses; the request-id suffix keeps each id unique.
func DeriveResponseID(lastTag uuid.UUID, requestID string) string {
	return UserPseudonym(lastTag)[:16] + "-" + requestID
}
