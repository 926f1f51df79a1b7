package interchange

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/verso/internal/errors"
	"github.com/hpungsan/verso/internal/fragment"
)

func sampleCollection() fragment.Collection {
	return fragment.Collection{
		{ID: "greet", File: "src/greet.py", Line: 2, Col: 0, Content: `print("hi")`},
		{ID: "multi", File: "src/lib.rs", Line: 10, Col: 0, Content: "fn a() {\n\tb(\"<&>\")\n}\n"},
		{ID: "empty", File: "src/lib.rs", Line: 40, Col: 0, Content: ""},
		{ID: "crlf", File: "win.txt", Line: 1, Col: 0, Content: "one\r\ntwo\r"},
	}
}

func TestRoundTrip(t *testing.T) {
	coll := sampleCollection()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, coll))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, coll, decoded)
}

func TestRoundTrip_LargeRecord(t *testing.T) {
	// One record far past bufio's default 64 KiB token size.
	coll := fragment.Collection{
		{ID: "big", File: "gen/big.go", Line: 1, Content: strings.Repeat("x = 1\n", 2*1024*1024/6+1)},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, coll))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, coll, decoded)
}

func TestRoundTrip_Empty(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestMarshal_Layout(t *testing.T) {
	data, err := Marshal(sampleCollection()[:1])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, `{"_verso_payload":true,"schema_version":"1.0","count":1}`, lines[0])
	require.Equal(t, `{"id":"greet","file":"src/greet.py","line":2,"col":0,"content":"print(\"hi\")"}`, lines[1])
}

func TestDecode_Truncated(t *testing.T) {
	data, err := Marshal(sampleCollection())
	require.NoError(t, err)

	// Cut at every possible point: each prefix must be refused.
	for cut := 0; cut < len(data)-1; cut++ {
		_, err := Unmarshal(data[:cut])
		if !errors.Is(err, errors.ErrMalformedPayload) {
			t.Fatalf("Unmarshal(prefix %d/%d) = %v, want MALFORMED_PAYLOAD", cut, len(data), err)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	header := `{"_verso_payload":true,"schema_version":"1.0","count":1}`
	record := `{"id":"a","file":"a.py","line":1,"col":0,"content":"x"}`

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
		{"not json", "hello world"},
		{"record without header", record + "\n"},
		{"header only but count 1", header + "\n"},
		{"extra record", header + "\n" + record + "\n" + record + "\n"},
		{"second header", `{"_verso_payload":true,"schema_version":"1.0","count":2}` + "\n" + header + "\n" + record + "\n"},
		{"blank line", `{"_verso_payload":true,"schema_version":"1.0","count":2}` + "\n" + record + "\n\n" + record + "\n"},
		{"missing id", header + "\n" + `{"file":"a.py","line":1,"col":0,"content":"x"}` + "\n"},
		{"zero line", header + "\n" + `{"id":"a","file":"a.py","line":0,"col":0,"content":"x"}` + "\n"},
		{"negative col", header + "\n" + `{"id":"a","file":"a.py","line":1,"col":-1,"content":"x"}` + "\n"},
		{"wrong schema", `{"_verso_payload":true,"schema_version":"9.9","count":0}` + "\n"},
		{"negative count", `{"_verso_payload":true,"schema_version":"1.0","count":-1}` + "\n"},
		{"truncated array", `[{"id":"a","file":"a.py","line":1,"col":0,"body":"x"}`},
		{"array with trailing data", `[] []`},
		{"array missing id", `[{"file":"a.py","line":1,"col":0,"body":"x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			if !errors.Is(err, errors.ErrMalformedPayload) {
				t.Errorf("Unmarshal = %v, want MALFORMED_PAYLOAD", err)
			}
		})
	}
}

func TestDecode_LegacyArray(t *testing.T) {
	data := `[
  {"body":"fn main() {}","id":"mainfn","file":"src/main.rs","line":3,"col":0},
  {"content":"x","id":"other","file":"src/lib.rs","line":1,"col":0}
]`

	coll, err := Decode(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, coll, 2)
	require.Equal(t, fragment.Fragment{ID: "mainfn", File: "src/main.rs", Line: 3, Content: "fn main() {}"}, coll[0])
	require.Equal(t, "x", coll[1].Content)
}

func TestDecode_ReadError(t *testing.T) {
	_, err := Decode(errReader{})
	require.True(t, errors.Is(err, errors.ErrIO), "got %v", err)
}

func TestEncode_WriteError(t *testing.T) {
	err := Encode(errWriter{}, sampleCollection())
	require.True(t, errors.Is(err, errors.ErrIO), "got %v", err)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, stderrors.New("pipe closed") }

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, stderrors.New("pipe closed") }
