package resp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderReadCommand(t *testing.T) {
	r := NewReader(strings.NewReader("*2\r\n$3\r\nGET\r\n$4\r\nname\r\n"))
	argv, err := r.ReadCommand()
	require.NoError(t, err)
	require.Equal(t, []string{"GET", "name"}, argv)
}

func TestReaderProtocolErrors(t *testing.T) {
	cases := map[string]string{
		"*abc\r\n":                    "Protocol error: invalid multibulk length",
		"*-2\r\n":                     "Protocol error: invalid multibulk length",
		"*1\r\n#3\r\nGET\r\n":         "Protocol error: expected '$', got '#'",
		"*1\r\n$abc\r\nGET\r\n":       "Protocol error: invalid bulk length",
		"notanarray\r\n":              "Protocol error: expected '*', got 'n'",
	}
	for input, wantMsg := range cases {
		_, err := NewReader(strings.NewReader(input)).ReadCommand()
		require.Error(t, err)
		require.True(t, IsProtocolError(err))
		require.Equal(t, wantMsg, err.Error())
	}
}

func TestReaderEmptyArrayRequest(t *testing.T) {
	r := NewReader(strings.NewReader("*0\r\n"))
	argv, err := r.ReadCommand()
	require.NoError(t, err)
	require.Empty(t, argv)
}

func TestWriterRESP2(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteValue(2, BulkString("foobar")))
	require.NoError(t, w.WriteValue(2, Integer(9)))
	require.NoError(t, w.WriteValue(2, Nil()))
	require.NoError(t, w.WriteValue(2, Bool(true)))
	require.NoError(t, w.Flush())
	require.Equal(t, "$6\r\nfoobar\r\n:9\r\n$-1\r\n:1\r\n", buf.String())
}

func TestWriterRESP3MapAndBool(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteValue(3, Map(BulkString("a"), Integer(1))))
	require.NoError(t, w.WriteValue(3, Bool(false)))
	require.NoError(t, w.Flush())
	require.Equal(t, "%1\r\n$1\r\na\r\n:1\r\n#f\r\n", buf.String())
}

func TestWriterArrayFlat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteValue(2, Array(BulkString("a"), BulkString("1"), BulkString("b"), BulkString("2"))))
	require.NoError(t, w.Flush())
	require.Equal(t, "*4\r\n$1\r\na\r\n$1\r\n1\r\n$1\r\nb\r\n$1\r\n2\r\n", buf.String())
}
