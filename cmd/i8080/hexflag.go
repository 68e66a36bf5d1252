package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// hexWord is a 16-bit flag value written in hex: 100, 0x100 or 100h.
type hexWord uint16

var _ pflag.Value = (*hexWord)(nil)

func (h *hexWord) String() string { return fmt.Sprintf("%04x", uint16(*h)) }

func (h *hexWord) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	if len(s) > 1 {
		s = strings.TrimSuffix(s, "h")
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return fmt.Errorf("want a hex address 0000-ffff: %w", err)
	}
	*h = hexWord(v)
	return nil
}

func (h *hexWord) Type() string { return "hex" }
