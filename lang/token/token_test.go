package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String(), "token %d missing string repr", tok)
	}
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
}

func TestKeywordsRoundtrip(t *testing.T) {
	for text, tok := range Keywords {
		require.Equal(t, text, tok.String())
	}
}

func TestIsAssignOp(t *testing.T) {
	require.True(t, ADD_ASSIGN.IsAssignOp())
	require.Equal(t, PLUS, ADD_ASSIGN.BinaryOp())
	require.False(t, PLUS.IsAssignOp())
	require.Equal(t, ILLEGAL, PLUS.BinaryOp())
}
