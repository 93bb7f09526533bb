// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package output filters, sorts and emits command rows as text tables, json,
// yaml or raw json.
package output
