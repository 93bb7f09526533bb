// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/staranto/toolman/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	// StartingDir is the working directory at startup. Relative artifact
	// paths are resolved against it.
	StartingDir string
}
