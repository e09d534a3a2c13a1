package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"maintlog/internal"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name  string
		entry string
		want  internal.Record
	}{
		{
			name:  "empty",
			entry: "   ",
			want:  internal.Record{},
		},
		{
			name:  "lower-case lead keeps comma-name",
			entry: "gasket-A102, needs replacement, Ravi Kumar",
			want:  internal.Record{Description: "gasket-A102, needs replacement", Technician: "Ravi Kumar"},
		},
		{
			name:  "equipment then parenthetical",
			entry: "Valve-B7, leaking at joint (Suresh)",
			want:  internal.Record{Equipment: "Valve-B7", Description: "leaking at joint", Technician: "Suresh"},
		},
		{
			name:  "supplier",
			entry: "Pump stopped working M/s Arti",
			want:  internal.Record{Description: "Pump stopped working", Technician: SupplierArti},
		},
		{
			name:  "supplier beats parenthetical and names",
			entry: "Seal kit, fitted (Ravi) M/s Arti, Suresh",
			want:  internal.Record{Description: "Seal kit, fitted (Ravi)", Technician: SupplierArti},
		},
		{
			name:  "equipment with hash and slash ended by period",
			entry: "Motor #3/A. bearing noise, Anil",
			want:  internal.Record{Equipment: "Motor #3/A", Description: "bearing noise", Technician: "Anil"},
		},
		{
			name:  "equipment with padding before comma",
			entry: "Valve , x",
			want:  internal.Record{Equipment: "Valve", Description: "x"},
		},
		{
			name:  "tab before separator",
			entry: "Valve\t, leak",
			want:  internal.Record{Equipment: "Valve", Description: "leak"},
		},
		{
			name:  "single capital is not equipment",
			entry: "A, b",
			want:  internal.Record{Description: "A, b"},
		},
		{
			name:  "lower-case comma tail falls through",
			entry: "replaced seal, ravi kumar",
			want:  internal.Record{Description: "replaced seal, ravi kumar"},
		},
		{
			name:  "bare trailing name",
			entry: "greased bearings Mahesh",
			want:  internal.Record{Description: "greased bearings", Technician: "Mahesh"},
		},
		{
			name:  "parenthetical not at end",
			entry: "pump seal leaking (Ravi) again",
			want:  internal.Record{Description: "pump seal leaking", Technician: "Ravi"},
		},
		{
			name:  "unbalanced parens fall back",
			entry: "unbalanced ) then (",
			want:  internal.Record{Description: "unbalanced ) then ("},
		},
		{
			name:  "comma-name needs single spaces",
			entry: "Filter-2, cleaned filter, Ravi  Kumar",
			want:  internal.Record{Equipment: "Filter-2", Description: "cleaned filter, Ravi", Technician: "Kumar"},
		},
		{
			name:  "equipment swallows the comma so bare name wins",
			entry: "Compressor, Ravi Kumar",
			want:  internal.Record{Equipment: "Compressor", Description: "Ravi", Technician: "Kumar"},
		},
		{
			name:  "sentence read as equipment leaves no description",
			entry: "Checked compressor pressure.",
			want:  internal.Record{Equipment: "Checked compressor pressure"},
		},
		{
			name:  "no pattern at all",
			entry: "checked compressor pressure.",
			want:  internal.Record{Description: "checked compressor pressure."},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Extract(tc.entry))
		})
	}
}

func TestExtractSupplierAlwaysWins(t *testing.T) {
	entries := []string{
		"M/s Arti",
		"Valve-B7, leak M/s Arti (Suresh)",
		"x, Ravi Kumar M/s Arti",
		"fixed by M/s Arti Suresh",
	}
	for _, e := range entries {
		assert.Equal(t, SupplierArti, Extract(e).Technician, e)
	}
}
