package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintlog/internal"
)

const sampleLog = "[12/31, 09:15] John: PTFE\n" +
	"[12/31, 09:16] John: Valve-B7, leaking at joint (Suresh)\n" +
	"[12/31, 09:17] Mary: - Forwarded message -\n" +
	"[12/31, 09:18] Mary: • Pump stopped working M/s Arti\n" +
	"SR#12\n" +
	"° checked compressor pressure.\n" +
	"Compressor-2, oil topped up\n" +
	"by night shift, Ravi Kumar\n" +
	"° Checked compressor pressure."

func TestParse(t *testing.T) {
	report := Parse(sampleLog)

	assert.Equal(t, 5, report.Entries)
	assert.Equal(t, 1, report.Dropped())
	require.Len(t, report.Records, 4)
	assert.Equal(t, []internal.Record{
		{Equipment: "Valve-B7", Description: "leaking at joint", Technician: "Suresh"},
		{Description: "Pump stopped working", Technician: SupplierArti},
		{Description: "checked compressor pressure."},
		{Equipment: "Compressor-2", Description: "oil topped up by night shift", Technician: "Ravi Kumar"},
	}, report.Records)
}

func TestParseLeadingHeaderTokenStaysOnLine(t *testing.T) {
	report := Parse("[12/31, 09:15] John: PTFE gasket-A102, needs replacement, Ravi Kumar")
	require.Len(t, report.Records, 1)
	assert.Equal(t, internal.Record{
		Equipment:   "PTFE gasket-A102",
		Description: "needs replacement",
		Technician:  "Ravi Kumar",
	}, report.Records[0])
}

func TestReportRows(t *testing.T) {
	rows := Parse(sampleLog).Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Equipment", "Description", "Technician"}, rows[0])
	assert.Equal(t, []string{"", "Pump stopped working", "M/s Arti"}, rows[2])

	// callers may scribble on the header row
	rows[0][0] = "x"
	assert.Equal(t, "Equipment", Header[0])
}

func TestParseEmpty(t *testing.T) {
	report := Parse("")
	assert.Zero(t, report.Entries)
	assert.Empty(t, report.Records)
	assert.Equal(t, [][]string{Header}, report.Rows())
}

func TestParseConcurrentMatchesParse(t *testing.T) {
	raw := strings.Repeat(sampleLog+"\n", 20)
	want := Parse(raw)
	for _, workers := range []int{0, 1, 3, 8, 1000} {
		assert.Equal(t, want, ParseConcurrent(raw, workers), "workers=%d", workers)
	}
}
