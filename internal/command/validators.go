// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"
)

// ErrUsage marks command line mistakes, as opposed to failures while doing
// the work.
var ErrUsage = errors.New("usage")

func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.Bool("titles") && c.String("output") != "text" {
		return fmt.Errorf("%w: --titles only applies to text output", ErrUsage)
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func MustBeTrueValidator(value any) error {
	if !value.(bool) {
		return errors.New("must be true")
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	if s, ok := value.(string); !ok || !slices.Contains(validOutputFlagValues, s) {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}

// ArgCountValidator checks the positional argument count. max < 0 means no
// upper bound.
func ArgCountValidator(c *cli.Command, min, max int) error {
	n := c.Args().Len()
	switch {
	case n < min:
		return fmt.Errorf("%w: %s needs at least %d argument(s), got %d", ErrUsage, c.Name, min, n)
	case max >= 0 && n > max:
		return fmt.Errorf("%w: %s takes at most %d argument(s), got %d", ErrUsage, c.Name, max, n)
	}
	return nil
}
