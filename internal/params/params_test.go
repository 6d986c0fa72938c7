package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePositionalRequired(t *testing.T) {
	schema := Schema{
		{Name: "key", Kind: Positional, Required: true},
		{Name: "value", Kind: Positional, Required: true, Type: TBytes},
	}
	r, err := Parse([]string{"k", "v"}, schema)
	require.NoError(t, err)
	require.Equal(t, "k", r.String("key"))
	require.Equal(t, []byte("v"), r.Bytes("value"))

	_, err = Parse([]string{"k"}, schema)
	require.ErrorIs(t, err, ErrWrongArgs)
}

func TestParseKeywordAndFlag(t *testing.T) {
	schema := Schema{
		{Name: "key", Kind: Positional, Required: true},
		{Name: "ex", Kind: Keyword, Token: "EX", Type: TInt64},
		{Name: "nx", Kind: Flag, Token: "NX"},
	}
	r, err := Parse([]string{"k", "NX", "EX", "10"}, schema)
	require.NoError(t, err)
	require.Equal(t, "k", r.String("key"))
	require.True(t, r.Bool("nx"))
	require.Equal(t, int64(10), r.Int64("ex"))
}

func TestParseUnknownKeywordIsSyntaxError(t *testing.T) {
	schema := Schema{
		{Name: "key", Kind: Positional, Required: true},
		{Name: "ex", Kind: Keyword, Token: "EX", Type: TInt64},
	}
	_, err := Parse([]string{"k", "BOGUS", "10"}, schema)
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParseBadInteger(t *testing.T) {
	schema := Schema{{Name: "n", Kind: Positional, Required: true, Type: TInt64}}
	_, err := Parse([]string{"abc"}, schema)
	require.ErrorIs(t, err, ErrNotInt)
}
