// Command fssdemo drives the FSS core from the command line: it deals
// primitives, writes them to a CBOR file, and runs the online eq/le
// protocol against them, for local experimentation and throughput
// measurement.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fsscore/batch"
	"fsscore/bits"
	"fsscore/online"
	"fsscore/store"
)

var (
	lambda     int
	n          int
	backendStr string

	op        string
	count     int
	outputFile string
	inputFile  string

	xVal uint64
	yVal uint64

	iterations int
	benchCount int

	rootCmd = &cobra.Command{
		Use:   "fssdemo",
		Short: "Function Secret Sharing core demo tool",
		Long:  `fssdemo deals FSS primitives and drives the online eq/le protocol for local experimentation.`,
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Deal a batch of primitives and write them to a file",
		RunE:  runKeygen,
	}

	evalCmd = &cobra.Command{
		Use:   "eval",
		Short: "Run the online eq/le protocol on freshly dealt primitives for two plaintext operands",
		RunE:  runEval,
	}

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Deal a batch of primitives, then measure batched eq/le evaluation throughput (keygen is not timed)",
		RunE:  runBench,
	}
)

func init() {
	rootCmd.PersistentFlags().IntVar(&lambda, "lambda", 110, "security parameter (seed width in bits)")
	rootCmd.PersistentFlags().IntVar(&n, "n", 32, "input bit width")
	rootCmd.PersistentFlags().StringVar(&backendStr, "backend", "sha3", "PRG backend: sha3, shake256, blake3")

	keygenCmd.Flags().StringVar(&op, "op", "eq", "primitive type: eq, comp, xor-add")
	keygenCmd.Flags().IntVar(&count, "count", 1, "number of primitives to deal")
	keygenCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (required)")
	keygenCmd.MarkFlagRequired("output")

	evalCmd.Flags().StringVar(&op, "op", "eq", "operation: eq, le")
	evalCmd.Flags().Uint64Var(&xVal, "x", 0, "plaintext x operand")
	evalCmd.Flags().Uint64Var(&yVal, "y", 0, "plaintext y operand")

	benchCmd.Flags().StringVar(&op, "op", "eq", "operation: eq, le")
	benchCmd.Flags().IntVar(&benchCount, "count", 1024, "batch size")
	benchCmd.Flags().IntVar(&iterations, "iterations", 1, "number of repetitions")

	rootCmd.AddCommand(keygenCmd, evalCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func resolveBackend() (bits.Backend, error) {
	switch backendStr {
	case "sha3":
		return bits.BackendSHA3, nil
	case "shake256":
		return bits.BackendSHAKE256, nil
	case "blake3":
		return bits.BackendBLAKE3, nil
	default:
		return 0, fmt.Errorf("unknown backend: %s", backendStr)
	}
}

func runKeygen(cmd *cobra.Command, args []string) error {
	backend, err := resolveBackend()
	if err != nil {
		return err
	}
	p := bits.Params{Lambda: lambda, N: n}
	if err := p.Validate(); err != nil {
		return err
	}

	var data []byte
	switch op {
	case "eq":
		b, err := batch.KeygenEq(p, backend, count)
		if err != nil {
			return fmt.Errorf("keygen_eq failed: %w", err)
		}
		data, err = b.Marshal()
		if err != nil {
			return err
		}
	case "comp":
		b, err := batch.KeygenComp(p, backend, count)
		if err != nil {
			return fmt.Errorf("keygen_comp failed: %w", err)
		}
		data, err = b.Marshal()
		if err != nil {
			return err
		}
	case "xor-add":
		b, err := batch.KeygenXorAdd(p, count)
		if err != nil {
			return fmt.Errorf("keygen_xor_add failed: %w", err)
		}
		data, err = b.Marshal()
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown op: %s", op)
	}

	if err := os.WriteFile(outputFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write primitives: %w", err)
	}
	fmt.Printf("dealt %d %s primitives to %s\n", count, op, outputFile)
	return nil
}

func newStores(p bits.Params, backend bits.Backend, count int) (*store.Store, *store.Store, error) {
	s0, s1 := store.New(), store.New()

	eqB, err := batch.KeygenEq(p, backend, count)
	if err != nil {
		return nil, nil, err
	}
	compB, err := batch.KeygenComp(p, backend, count)
	if err != nil {
		return nil, nil, err
	}
	xorAddB, err := batch.KeygenXorAdd(p, count)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < count; i++ {
		s0.PushEq(eqB.Party0[i])
		s1.PushEq(eqB.Party1[i])
		s0.PushComp(compB.Party0[i])
		s1.PushComp(compB.Party1[i])
		s0.PushXorAdd(xorAddB.Party0[i])
		s1.PushXorAdd(xorAddB.Party1[i])
	}
	return s0, s1, nil
}

func splitShare(p bits.Params, v uint64) online.PartyShare {
	s0 := bits.RandUint64(p)
	return online.PartyShare{P0: s0, P1: p.Reduce(v - s0)}
}

func runEval(cmd *cobra.Command, args []string) error {
	backend, err := resolveBackend()
	if err != nil {
		return err
	}
	p := bits.Params{Lambda: lambda, N: n}
	if err := p.Validate(); err != nil {
		return err
	}

	o, err := online.New(p, backend)
	if err != nil {
		return err
	}
	s0, s1, err := newStores(p, backend, 1)
	if err != nil {
		return err
	}

	x := splitShare(p, xVal)
	y := splitShare(p, yVal)

	var result online.PartyShare
	switch op {
	case "eq":
		result, err = o.Eq(s0, s1, x, y)
	case "le":
		result, err = o.Le(s0, s1, x, y)
	default:
		return fmt.Errorf("unknown op: %s", op)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}

	fmt.Printf("%s(%d, %d) = %d (party0 share=%d, party1 share=%d)\n", op, xVal, yVal, result.Recover(p), result.P0, result.P1)
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	count := benchCount
	backend, err := resolveBackend()
	if err != nil {
		return err
	}
	p := bits.Params{Lambda: lambda, N: n}
	if err := p.Validate(); err != nil {
		return err
	}

	o, err := online.New(p, backend)
	if err != nil {
		return err
	}

	for iter := 0; iter < iterations; iter++ {
		s0, s1, err := newStores(p, backend, count)
		if err != nil {
			return err
		}

		xs := make([]online.PartyShare, count)
		ys := make([]online.PartyShare, count)
		for i := 0; i < count; i++ {
			v := bits.RandUint64(p)
			xs[i] = splitShare(p, v)
			ys[i] = splitShare(p, v)
		}

		start := time.Now()
		switch op {
		case "eq":
			_, err = o.EqBatch(s0, s1, xs, ys)
		case "le":
			_, err = o.LeBatch(s0, s1, xs, ys)
		default:
			return fmt.Errorf("unknown op: %s", op)
		}
		if err != nil {
			return fmt.Errorf("%s batch failed: %w", op, err)
		}
		elapsed := time.Since(start)
		fmt.Printf("iteration %d: %s on %d lanes took %s (%.1f ops/s)\n", iter+1, op, count, elapsed, float64(count)/elapsed.Seconds())
	}
	return nil
}
