package disasm

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/oisee/i8080/pkg/cpu"
	"github.com/oisee/i8080/pkg/inst"
)

func TestDecodeJMP(t *testing.T) {
	rec, err := DecodeOne([]byte{0xC3, 0x00, 0x08}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Text != "JMP\t0800" || rec.Address != 0 || rec.Length != 3 {
		t.Errorf("got %+v", rec)
	}
	if !bytes.Equal(rec.Bytes, []byte{0xC3, 0x00, 0x08}) {
		t.Errorf("bytes % x", rec.Bytes)
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		code []byte
		want string
	}{
		{[]byte{0x00}, "NOP"},
		{[]byte{0x08}, "NOP"},
		{[]byte{0x41}, "MOV\tB,C"},
		{[]byte{0x77}, "MOV\tM,A"},
		{[]byte{0x36, 0x42}, "MVI\tM,42"},
		{[]byte{0x31, 0x00, 0x24}, "LXI\tSP,2400"},
		{[]byte{0x21, 0xCD, 0xAB}, "LXI\tH,abcd"},
		{[]byte{0xFF}, "RST\t7"},
		{[]byte{0xF5}, "PUSH\tPSW"},
		{[]byte{0xC5}, "PUSH\tB"},
		{[]byte{0xC6, 0xFF}, "ADI\tff"},
		{[]byte{0xDB, 0x10}, "IN\t10"},
		{[]byte{0xD3, 0x01}, "OUT\t01"},
		{[]byte{0x34}, "INR\tM"},
		{[]byte{0x87}, "ADD\tA"},
		{[]byte{0x1A}, "LDAX\tD"},
		{[]byte{0x09}, "DAD\tB"},
		{[]byte{0xC4, 0x34, 0x12}, "CNZ\t1234"},
		{[]byte{0xF8}, "RM"},
		{[]byte{0xCB, 0x00, 0x08}, "JMP\t0800"},
		{[]byte{0xDD, 0x00, 0x01}, "CALL\t0100"},
		{[]byte{0x3A, 0x00, 0x20}, "LDA\t2000"},
		{[]byte{0x76}, "HLT"},
	}
	for _, tc := range tests {
		rec, err := DecodeOne(tc.code, 0)
		if err != nil {
			t.Errorf("% x: %v", tc.code, err)
			continue
		}
		if rec.Text != tc.want {
			t.Errorf("% x: got %q, want %q", tc.code, rec.Text, tc.want)
		}
	}
}

// TestLengthsMatchTable decodes every opcode and compares with the table.
func TestLengthsMatchTable(t *testing.T) {
	for op := 0; op < 256; op++ {
		rec, err := DecodeOne([]byte{uint8(op), 0, 0}, 0)
		if err != nil {
			t.Fatalf("%02x: %v", op, err)
		}
		if want := inst.Lookup(uint8(op)).Length; rec.Length != want || len(rec.Bytes) != want {
			t.Errorf("%02x: length %d (%d bytes), want %d", op, rec.Length, len(rec.Bytes), want)
		}
	}
}

func TestTruncated(t *testing.T) {
	_, err := DecodeOne([]byte{0x01}, 0)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
	if !errors.Is(err, cpu.ErrOutOfBounds) {
		t.Error("truncation should match cpu.ErrOutOfBounds")
	}
	var te *TruncatedError
	if !errors.As(err, &te) || te.Need != 3 || te.Have != 1 || te.Mnemonic != "LXI" {
		t.Errorf("truncated error %+v", te)
	}

	recs, err := Listing([]byte{0x00, 0xC3, 0x00}, 0x100)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Listing err = %v", err)
	}
	if len(recs) != 1 || recs[0].Text != "NOP" {
		t.Errorf("partial listing %+v", recs)
	}
	if te, ok := err.(*TruncatedError); !ok || te.Address != 0x101 {
		t.Errorf("error address: %v", err)
	}
}

func TestOffset(t *testing.T) {
	if _, err := DecodeOne([]byte{0x00}, 1); !errors.Is(err, ErrOffset) {
		t.Errorf("offset past end: %v", err)
	}
	if _, err := DecodeOne(nil, 0); !errors.Is(err, ErrOffset) {
		t.Errorf("empty buffer: %v", err)
	}
	if _, err := DecodeOne([]byte{0x00}, -1); !errors.Is(err, ErrOffset) {
		t.Errorf("negative offset: %v", err)
	}
}

func TestTopOfAddressSpace(t *testing.T) {
	rec, err := DecodeAt([]byte{0x00, 0x76}, 1, 0xFFFE)
	if err != nil || rec.Address != 0xFFFF || rec.Text != "HLT" {
		t.Errorf("HLT at ffff: %+v %v", rec, err)
	}
	if _, err := DecodeAt([]byte{0x00, 0x00}, 1, 0xFFFF); !errors.Is(err, ErrOffset) {
		t.Errorf("address past ffff: %v", err)
	}
	if _, err := DecodeAt([]byte{0xC3, 0x00, 0x01}, 0, 0xFFFF); !errors.Is(err, ErrTruncated) {
		t.Errorf("JMP at ffff: %v", err)
	}

	recs, err := Listing([]byte{0x00, 0x00, 0x00}, 0xFFFE)
	if !errors.Is(err, ErrOffset) {
		t.Fatalf("Listing err = %v", err)
	}
	if len(recs) != 2 || recs[1].Address != 0xFFFF {
		t.Errorf("partial listing %+v", recs)
	}
}

var program = []byte{
	0x31, 0x00, 0x24, // LXI SP,2400
	0x06, 0x42, // MVI B,42
	0xC5,             // PUSH B
	0xCD, 0x10, 0x00, // CALL 0010
	0x76, // HLT
}

func TestListing(t *testing.T) {
	recs, err := Listing(program, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		addr uint16
		text string
	}{
		{0x0000, "LXI\tSP,2400"},
		{0x0003, "MVI\tB,42"},
		{0x0005, "PUSH\tB"},
		{0x0006, "CALL\t0010"},
		{0x0009, "HLT"},
	}
	if len(recs) != len(want) {
		t.Fatalf("%d records, want %d", len(recs), len(want))
	}
	for i, w := range want {
		if recs[i].Address != w.addr || recs[i].Text != w.text {
			t.Errorf("record %d: %04x %q, want %04x %q", i, recs[i].Address, recs[i].Text, w.addr, w.text)
		}
	}
}

func TestOrigin(t *testing.T) {
	recs, err := Listing(program, 0x100)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Address != 0x100 || recs[4].Address != 0x109 {
		t.Errorf("addresses %04x..%04x", recs[0].Address, recs[4].Address)
	}
	rec, err := DecodeAt(program, 3, 0x100)
	if err != nil || rec.Address != 0x103 || rec.Text != "MVI\tB,42" {
		t.Errorf("DecodeAt: %+v %v", rec, err)
	}
}

// TestAllRestartable ranges over the same sequence twice and compares.
func TestAllRestartable(t *testing.T) {
	seq := All(program, 0)
	collect := func() []Record {
		var recs []Record
		for rec, err := range seq {
			if err != nil {
				t.Fatal(err)
			}
			recs = append(recs, rec)
		}
		return recs
	}
	first, second := collect(), collect()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass differs:\n%+v\n%+v", first, second)
	}
	if len(first) != 5 {
		t.Errorf("%d records, want 5", len(first))
	}
}

func TestAllEarlyStop(t *testing.T) {
	n := 0
	for range All(program, 0) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}
}

func TestAllStopsOnError(t *testing.T) {
	var errs, recs int
	for _, err := range All([]byte{0x00, 0x00, 0x3E}, 0) {
		if err != nil {
			errs++
			continue
		}
		recs++
	}
	if recs != 2 || errs != 1 {
		t.Errorf("recs=%d errs=%d, want 2 and 1", recs, errs)
	}
}
