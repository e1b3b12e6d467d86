package helper

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUserPseudonymStableAndOpaque(t *testing.T) {
	tag := uuid.MustParse("018f3b8e-0000-7000-8000-000000000001")
	first := UserPseudonym(tag)
	require.Equal(t, first, UserPseudonym(tag))
	require.NotContains(t, first, strings.ReplaceAll(tag.String(), "-", ""))

	other := uuid.MustParse("018f3b8e-0000-7000-8000-000000000002")
	require.NotEqual(t, first, UserPseudonym(other))
}

func TestUserPseudonymAlphabet(t *testing.T) {
	pseudonym := UserPseudonym(uuid.New())
	for _, r := range pseudonym {
		require.Contains(t, "0123456789abcdefghjkmnpqrstvwxyz", string(r))
	}
}

func TestDeriveResponseID(t *testing.T) {
	tag := uuid.New()
	a := DeriveResponseID(tag, GenRequestID())
	b := DeriveResponseID(tag, GenRequestID())
	// Stable prefix per tag, unique suffix per request.
	require.Equal(t, a[:17], b[:17])
	require.NotEqual(t, a, b)
}
