package cli

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timelockidx/internal/ir"
)

// requestFlags holds the fields shared by single and batch submissions.
type requestFlags struct {
	Caller      string
	Predecessor string
	Salt        string
	Delay       time.Duration

	// single
	Target string
	Value  string
	Data   string

	// batch, repeated target:value:data
	Calls []string
}

func (f *requestFlags) bindCommon(cmd *cobra.Command, withCaller bool) {
	if withCaller {
		cmd.Flags().StringVar(&f.Caller, "caller", "", "0x account making the request (required)")
		_ = cmd.MarkFlagRequired("caller")
	}
	cmd.Flags().StringVar(&f.Predecessor, "predecessor", "", "0x identity that must be executed first")
	cmd.Flags().StringVar(&f.Salt, "salt", "", "0x salt distinguishing otherwise identical requests")
	cmd.Flags().DurationVar(&f.Delay, "delay", 0, "scheduling delay (whole seconds)")
}

func (f *requestFlags) bindSingle(cmd *cobra.Command, withCaller bool) {
	f.bindCommon(cmd, withCaller)
	cmd.Flags().StringVar(&f.Target, "target", "", "0x call target (required)")
	_ = cmd.MarkFlagRequired("target")
	cmd.Flags().StringVar(&f.Value, "value", "0", "call value (decimal or 0x hex)")
	cmd.Flags().StringVar(&f.Data, "data", "0x", "0x call payload")
}

func (f *requestFlags) bindBatch(cmd *cobra.Command, withCaller bool) {
	f.bindCommon(cmd, withCaller)
	cmd.Flags().StringArrayVar(&f.Calls, "call", nil, "call as target:value:data (repeatable)")
}

func (f *requestFlags) caller() (ir.Address, error) {
	return parseAddress("caller", f.Caller)
}

func (f *requestFlags) operation() (ir.Operation, error) {
	target, err := parseAddress("target", f.Target)
	if err != nil {
		return ir.Operation{}, err
	}
	value, err := ir.ParseValue(f.Value)
	if err != nil {
		return ir.Operation{}, fmt.Errorf("--value: %w", err)
	}
	data, err := parseBytes("data", f.Data)
	if err != nil {
		return ir.Operation{}, err
	}
	pred, salt, err := f.predecessorAndSalt()
	if err != nil {
		return ir.Operation{}, err
	}
	return ir.Operation{
		Target:      target,
		Value:       value,
		Data:        data,
		Predecessor: pred,
		Salt:        salt,
		Delay:       f.Delay,
	}, nil
}

func (f *requestFlags) batch() (ir.OperationBatch, error) {
	b := ir.OperationBatch{
		Targets:  make([]ir.Address, 0, len(f.Calls)),
		Values:   make([]*big.Int, 0, len(f.Calls)),
		Payloads: make([][]byte, 0, len(f.Calls)),
		Delay:    f.Delay,
	}
	for i, raw := range f.Calls {
		c, err := ir.ParseCall(raw)
		if err != nil {
			return ir.OperationBatch{}, fmt.Errorf("--call[%d]: %w", i, err)
		}
		b.Targets = append(b.Targets, c.Target)
		b.Values = append(b.Values, c.Value)
		b.Payloads = append(b.Payloads, c.Data)
	}
	pred, salt, err := f.predecessorAndSalt()
	if err != nil {
		return ir.OperationBatch{}, err
	}
	b.Predecessor, b.Salt = pred, salt
	return b, nil
}

func (f *requestFlags) predecessorAndSalt() (ir.Identity, ir.Identity, error) {
	pred, err := parseWord("predecessor", f.Predecessor)
	if err != nil {
		return ir.Identity{}, ir.Identity{}, err
	}
	salt, err := parseWord("salt", f.Salt)
	if err != nil {
		return ir.Identity{}, ir.Identity{}, err
	}
	return pred, salt, nil
}

func parseAddress(name, s string) (ir.Address, error) {
	a, err := ir.ParseAddress(s)
	if err != nil {
		return ir.Address{}, fmt.Errorf("--%s: %w", name, err)
	}
	return a, nil
}

func parseBytes(name, s string) ([]byte, error) {
	b, err := ir.ParseBytes(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return b, nil
}

func parseWord(name, s string) (ir.Identity, error) {
	w, err := ir.ParseWord(s)
	if err != nil {
		return ir.Identity{}, fmt.Errorf("--%s: %w", name, err)
	}
	return w, nil
}

var errMissingTarget = errors.New("--target is required")
