// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package expr compiles the user supplied CEL expressions: the block prefix
// expression used when naming variables and the dictionary row filter.
package expr

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// RowVariables are the names a row filter expression can refer to.
var RowVariables = []string{"qid", "question_id", "name", "block", "question", "item", "type", "selector", "sub_selector", "level", "label"}

// BlockPrefix evaluates an expression over the block name and returns the
// prefix to put in front of variable names.
//
//	block.split(" ")[0].lowerAscii()
type BlockPrefix struct {
	Expression string
	program    cel.Program
}

// NewBlockPrefix compiles a block prefix expression. The expression sees one
// string variable, block, and must produce a string.
func NewBlockPrefix(expression string) (*BlockPrefix, error) {
	if expression == "" {
		return nil, fmt.Errorf("block prefix expression can't be empty")
	}
	env, err := cel.NewEnv(
		cel.Variable("block", cel.StringType),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}
	p, err := compile(env, expression, cel.StringType)
	if err != nil {
		return nil, err
	}
	return &BlockPrefix{Expression: expression, program: p}, nil
}

// Prefix returns the prefix for one block name.
func (b *BlockPrefix) Prefix(block string) (string, error) {
	out, _, err := b.program.Eval(map[string]any{"block": block})
	if err != nil {
		return "", fmt.Errorf("error evaluating block prefix for %q: %w", block, err)
	}
	nv, err := out.ConvertToNative(reflect.TypeOf(""))
	if err != nil {
		return "", fmt.Errorf("block prefix for %q is not a string: %w", block, err)
	}
	return nv.(string), nil
}

// RowFilter is a boolean expression over the fields of a dictionary row.
//
//	type == "Matrix" && block.startsWith("Mood")
type RowFilter struct {
	Expression string
	program    cel.Program
}

// NewRowFilter compiles a row filter. See RowVariables for the available
// string variables.
func NewRowFilter(expression string) (*RowFilter, error) {
	if expression == "" {
		return nil, fmt.Errorf("filter expression can't be empty")
	}
	opts := []cel.EnvOption{ext.Strings()}
	for _, v := range RowVariables {
		opts = append(opts, cel.Variable(v, cel.StringType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}
	p, err := compile(env, expression, cel.BoolType)
	if err != nil {
		return nil, err
	}
	return &RowFilter{Expression: expression, program: p}, nil
}

// Match reports whether the row described by vars passes the filter. Missing
// variables are treated as empty strings.
func (f *RowFilter) Match(vars map[string]string) (bool, error) {
	activation := make(map[string]any, len(RowVariables))
	for _, v := range RowVariables {
		activation[v] = vars[v]
	}
	out, _, err := f.program.Eval(activation)
	if err != nil {
		return false, fmt.Errorf("error evaluating filter: %w", err)
	}
	nv, err := out.ConvertToNative(reflect.TypeOf(false))
	if err != nil {
		return false, fmt.Errorf("filter did not produce a boolean: %w", err)
	}
	return nv.(bool), nil
}

func compile(env *cel.Env, expression string, want *cel.Type) (cel.Program, error) {
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error compiling CEL expression %q: %w", expression, issues.Err())
	}
	if !ast.OutputType().IsExactType(want) {
		return nil, fmt.Errorf("expression %q has type %s, want %s", expression, ast.OutputType(), want)
	}
	p, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("error creating Program: %w", err)
	}
	return p, nil
}
