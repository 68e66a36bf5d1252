package asm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oisee/i8080/pkg/disasm"
	"github.com/oisee/i8080/pkg/inst"
)

func TestInstruction(t *testing.T) {
	tests := []struct {
		text string
		want []byte
	}{
		{"NOP", []byte{0x00}},
		{"nop", []byte{0x00}},
		{"MOV B,C", []byte{0x41}},
		{"mov m, a", []byte{0x77}},
		{"MVI B,42", []byte{0x06, 0x42}},
		{"MVI A,0xFF", []byte{0x3E, 0xFF}},
		{"MVI A,0FFh", []byte{0x3E, 0xFF}},
		{"LXI SP,2400", []byte{0x31, 0x00, 0x24}},
		{"LXI H, 0x1234", []byte{0x21, 0x34, 0x12}},
		{"JMP 0800", []byte{0xC3, 0x00, 0x08}},
		{"CALL 0100", []byte{0xCD, 0x00, 0x01}},
		{"JNZ 1234", []byte{0xC2, 0x34, 0x12}},
		{"RST 7", []byte{0xFF}},
		{"PUSH PSW", []byte{0xF5}},
		{"POP D", []byte{0xD1}},
		{"ADD M", []byte{0x86}},
		{"CPI 40", []byte{0xFE, 0x40}},
		{"IN 10", []byte{0xDB, 0x10}},
		{"DAD SP", []byte{0x39}},
		{"RET", []byte{0xC9}},
	}
	for _, tc := range tests {
		got, err := Instruction(tc.text)
		if err != nil {
			t.Errorf("%q: %v", tc.text, err)
			continue
		}
		if !bytes.Equal(got, tc.want) {
			t.Errorf("%q: got % x, want % x", tc.text, got, tc.want)
		}
	}
}

func TestInstructionErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"FOO",
		"MOV B",
		"MOV B,X",
		"MVI B,100",
		"LXI PSW,0000",
		"PUSH SP",
		"RST 8",
		"JMP",
		"ADI zz",
	} {
		if _, err := Instruction(text); err == nil {
			t.Errorf("%q: expected error", text)
		}
	}
}

func TestAssemble(t *testing.T) {
	got, err := Assemble("MVI A,01 : OUT 02\n; comment\nHLT")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x3E, 0x01, 0xD3, 0x02, 0x76}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
	if _, err := Assemble(" : "); err == nil {
		t.Error("empty program should fail")
	}
	if _, err := Assemble("NOP : BAD"); err == nil || !strings.Contains(err.Error(), "BAD") {
		t.Errorf("error should name the bad part: %v", err)
	}
}

// TestDisasmRoundTrip assembles the disassembly of every documented opcode.
func TestDisasmRoundTrip(t *testing.T) {
	for _, d := range inst.Table() {
		if d.Undocumented {
			continue
		}
		code := []byte{d.Opcode, 0x34, 0x12}[:d.Length]
		rec, err := disasm.DecodeOne(code, 0)
		if err != nil {
			t.Fatalf("%02x: %v", d.Opcode, err)
		}
		got, err := Instruction(rec.Text)
		if err != nil {
			t.Errorf("%02x %q: %v", d.Opcode, rec.Text, err)
			continue
		}
		if !bytes.Equal(got, code) {
			t.Errorf("%02x %q: got % x, want % x", d.Opcode, rec.Text, got, code)
		}
	}
}
