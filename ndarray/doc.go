// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package ndarray provides a small dense, row-major N-dimensional array used
// as the in-memory form of pixel and tensor data across toolman.
package ndarray
