package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/oisee/i8080/pkg/asm"
	"github.com/oisee/i8080/pkg/cpu"
	"github.com/oisee/i8080/pkg/disasm"
	"github.com/oisee/i8080/pkg/result"
	"github.com/oisee/i8080/pkg/script"
	"github.com/oisee/i8080/pkg/verify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	var logLevel string
	rootCmd := &cobra.Command{
		Use:          "i8080",
		Short:        "Intel 8080 disassembler and emulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// disasm command
	var disOrigin hexWord
	var disJSON bool

	disasmCmd := &cobra.Command{
		Use:   "disasm [rom]",
		Short: "Disassemble a binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			recs, err := disasm.Listing(image, uint16(disOrigin))
			w := cmd.OutOrStdout()
			if disJSON {
				if jerr := result.WriteListing(w, recs); jerr != nil {
					return jerr
				}
			} else {
				for _, r := range recs {
					fmt.Fprintf(w, "%04x\t%s\n", r.Address, r.Text)
				}
			}
			return err
		},
	}
	disasmCmd.Flags().Var(&disOrigin, "origin", "Address of the first byte (hex)")
	disasmCmd.Flags().BoolVar(&disJSON, "json", false, "Write the listing as JSON")

	// run command
	var (
		runOrigin hexWord
		runSP     hexWord
		memSize   int
		maxSteps  int
		portsFile string
		trace     bool
		loadState string
		saveState string
	)

	runCmd := &cobra.Command{
		Use:   "run [rom]",
		Short: "Load a binary image and execute it",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rom, err := romArg(args, loadState)
			if err != nil {
				return err
			}
			m := cpu.New(cpu.Config{
				MemSize: memSize,
				Origin:  uint16(runOrigin),
				SP:      uint16(runSP),
				Log:     log,
			})
			if loadState != "" {
				ckpt, err := result.LoadCheckpoint(loadState)
				if err != nil {
					return err
				}
				if err := m.Restore(ckpt.Snapshot); err != nil {
					return err
				}
				if rom == "" {
					rom = ckpt.Image
				}
				log.WithFields(logrus.Fields{"file": loadState, "pc": fmt.Sprintf("%04x", m.PC)}).Info("resumed")
			} else {
				image, err := os.ReadFile(rom)
				if err != nil {
					return err
				}
				if err := m.Load(uint16(runOrigin), image); err != nil {
					return err
				}
			}

			if portsFile != "" {
				p, err := script.Load(portsFile, log)
				if err != nil {
					return err
				}
				defer p.Close()
				m.Ports = p
			} else {
				m.Ports = cpu.PortFuncs{Out: func(port, value uint8) error {
					log.WithFields(logrus.Fields{
						"port":  fmt.Sprintf("%02x", port),
						"value": fmt.Sprintf("%02x", value),
					}).Info("out")
					return nil
				}}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var out cpu.Outcome
			if trace {
				out, err = traceRun(ctx, m, maxSteps, cmd.OutOrStdout())
			} else {
				out, err = m.Run(ctx, maxSteps)
			}

			log.WithFields(logrus.Fields{
				"outcome": out.Kind.String(),
				"pc":      fmt.Sprintf("%04x", m.PC),
				"steps":   m.Steps,
				"cycles":  m.Cycles,
			}).Info("stopped")

			if saveState != "" {
				ckpt := &result.Checkpoint{Image: rom, Origin: uint16(runOrigin), Snapshot: m.Snapshot()}
				if serr := result.SaveCheckpoint(saveState, ckpt); serr != nil {
					return serr
				}
				log.WithField("file", saveState).Info("checkpoint written")
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	runCmd.Flags().Var(&runOrigin, "origin", "Load address and initial PC (hex)")
	runCmd.Flags().Var(&runSP, "sp", "Initial stack pointer (hex)")
	runCmd.Flags().IntVar(&memSize, "mem-size", cpu.MaxMemory, "Memory size in bytes")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Stop after this many instructions (0 = no limit)")
	runCmd.Flags().StringVar(&portsFile, "ports", "", "Lua script implementing read_port/write_port")
	runCmd.Flags().BoolVar(&trace, "trace", false, "Print each instruction before executing it")
	runCmd.Flags().StringVar(&loadState, "load-state", "", "Resume from a checkpoint file")
	runCmd.Flags().StringVar(&saveState, "save-state", "", "Write a checkpoint when execution stops")

	// verify command
	var numWorkers int
	var quick, verifyJSON, coverage bool

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check ALU and flag behavior against the reference model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if coverage {
				missing := verify.Unimplemented(verify.Coverage(log))
				fmt.Fprintf(w, "%d opcodes not executable\n", len(missing))
				for _, op := range missing {
					fmt.Fprintf(w, "  %02x\n", op)
				}
			}

			table, st := verify.Run(verify.Config{NumWorkers: numWorkers, Quick: quick, Log: log})
			ms := table.Mismatches()
			if verifyJSON {
				if err := result.WriteMismatches(w, ms); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "%d opcodes, %d inputs, %d failed\n", st.Opcodes, st.Checked, st.Failed)
				for _, mm := range ms {
					fmt.Fprintf(w, "  %02x %-4s a=%02x op=%02x f=%02x: got %02x/%02x want %02x/%02x %s\n",
						mm.Opcode, mm.Mnemonic, mm.A, mm.Operand, mm.InFlags,
						mm.Got, mm.GotFlags, mm.Want, mm.WantFlags, mm.Err)
				}
			}
			if st.Failed > 0 {
				return fmt.Errorf("%d opcodes disagree with the reference model", st.Failed)
			}
			return nil
		},
	}
	verifyCmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of workers (0 = NumCPU)")
	verifyCmd.Flags().BoolVar(&quick, "quick", false, "Test vectors only")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Write mismatches as JSON")
	verifyCmd.Flags().BoolVar(&coverage, "coverage", false, "Also list opcodes that cannot execute")

	// asm command
	asmCmd := &cobra.Command{
		Use:   "asm [instructions]",
		Short: "Encode instructions, e.g. \"MVI A,42 : OUT 01 : HLT\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := asm.Assemble(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "% x\n", code)
			return nil
		},
	}

	rootCmd.AddCommand(disasmCmd, runCmd, verifyCmd, asmCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// romArg returns the image named on the run command line. It may be omitted
// only when resuming from a checkpoint.
func romArg(args []string, loadState string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if loadState == "" {
		return "", errors.New("run: a ROM image is required unless --load-state is given")
	}
	return "", nil
}

// traceRun is Machine.Run with a register dump before every instruction.
func traceRun(ctx context.Context, m *cpu.Machine, maxSteps int, w io.Writer) (cpu.Outcome, error) {
	var out cpu.Outcome
	for n := 0; maxSteps <= 0 || n < maxSteps; n++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		text := "???"
		if rec, err := disasm.DecodeOne(m.Memory, int(m.PC)); err == nil {
			text = rec.Text
		}
		fmt.Fprintf(w, "%04x  %-14s A=%02x BC=%04x DE=%04x HL=%04x SP=%04x F=%02x\n",
			m.PC, text, m.A, m.BC(), m.DE(), m.HL(), m.SP, m.Flags.Byte())

		var err error
		if out, err = m.Step(); err != nil {
			return out, err
		}
		if out.Kind == cpu.Halted || out.Pending {
			return out, nil
		}
	}
	return out, nil
}
