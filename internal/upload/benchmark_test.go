package upload

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/JonMunkholm/provtab/internal/core"
	"github.com/JonMunkholm/provtab/internal/core/sheets"
)

// materialsFile builds a materials CSV of n data rows.
func materialsFile(n int) []byte {
	var buf bytes.Buffer
	buf.WriteString("registrationType,materialName,supplier,quantity,unit\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, "purchased,material %d,Acme Labs,%d.5,mg\n", i, i)
	}
	return buf.Bytes()
}

// BenchmarkParse measures header detection plus record collection.
func BenchmarkParse(b *testing.B) {
	def, _ := core.Get(sheets.Materials)
	for _, n := range []int{100, 5000} {
		data := materialsFile(n)
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Parse(NewReader(bytes.NewReader(data), 0), def, 0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkNewReader measures the cleaning wrappers alone. The mixed case
// exercises the multi-byte path.
func BenchmarkNewReader(b *testing.B) {
	cases := map[string][]byte{
		"ascii": materialsFile(1000),
		"mixed": bytes.Repeat([]byte("µg,°C,caf\xe9\n"), 5000),
	}
	for name, data := range cases {
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := io.Copy(io.Discard, NewReader(bytes.NewReader(data), 0)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
