package result

import (
	"encoding/json"
	"io"

	"github.com/oisee/i8080/pkg/disasm"
)

// WriteListing writes disassembly records as an indented JSON array.
func WriteListing(w io.Writer, recs []disasm.Record) error {
	return writeJSON(w, recs)
}

// ReadListing reads records written by WriteListing.
func ReadListing(r io.Reader) ([]disasm.Record, error) {
	var recs []disasm.Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// WriteMismatches writes verification mismatches as an indented JSON array.
func WriteMismatches(w io.Writer, ms []Mismatch) error {
	if ms == nil {
		ms = []Mismatch{}
	}
	return writeJSON(w, ms)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
