// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"survey-dict/internal/paths"
)

// WriteOutput runs write against the file at path, or against stdout when
// path is empty.
func WriteOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	resolved, err := paths.ResolvePath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(resolved); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(resolved)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteBlocks writes one file per block, named after base with the block
// appended. It returns the written paths in block order.
func WriteBlocks[T any](base string, parts map[string]T, write func(io.Writer, T) error) ([]string, error) {
	if base == "" {
		return nil, fmt.Errorf("an output path is required to split by block")
	}
	blocks := make([]string, 0, len(parts))
	for block := range parts {
		blocks = append(blocks, block)
	}
	sort.Strings(blocks)

	written := make([]string, 0, len(blocks))
	for _, block := range blocks {
		name := paths.BlockFileName(base, block)
		part := parts[block]
		if err := WriteOutput(name, nil, func(w io.Writer) error { return write(w, part) }); err != nil {
			return written, fmt.Errorf("block %q: %w", block, err)
		}
		written = append(written, name)
	}
	return written, nil
}
