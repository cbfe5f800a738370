// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"survey-dict/internal/overrides"
)

func main() {
	var (
		overridesFile = flag.String("overrides-file", "", "Path to overrides file (default: <config dir>/overrides.yaml)")
		action        = flag.String("action", "", "Action to perform: list, set, remove")
		qid           = flag.String("qid", "", "Question id (for set and remove actions)")
		name          = flag.String("name", "", "Variable name (for set action)")
		reason        = flag.String("reason", "", "Reason for the override (for set action)")
	)
	flag.Parse()

	if *action == "" {
		fmt.Println("Error: --action is required")
		fmt.Println("Usage: survey-dict-overrides --action <list|set|remove> [options]")
		os.Exit(1)
	}

	manager, err := overrides.NewManager(*overridesFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	switch *action {
	case "list":
		listOverrides(manager)
	case "set":
		if *qid == "" || *name == "" {
			fmt.Println("Error: --qid and --name are required for set action")
			os.Exit(1)
		}
		if err := manager.Set(*qid, *name, *reason); err != nil {
			fmt.Printf("Error setting override: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s will be named %s\n", *qid, *name)
	case "remove":
		if *qid == "" {
			fmt.Println("Error: --qid is required for remove action")
			os.Exit(1)
		}
		if err := manager.Remove(*qid); err != nil {
			fmt.Printf("Error removing override: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed override for %s\n", *qid)
	default:
		fmt.Printf("Error: Unknown action '%s'\n", *action)
		fmt.Println("Valid actions: list, set, remove")
		os.Exit(1)
	}
}

func listOverrides(manager *overrides.Manager) {
	list := manager.List()
	if len(list) == 0 {
		fmt.Printf("No overrides in %s\n", manager.Path())
		return
	}

	fmt.Printf("Found %d overrides in %s:\n\n", len(list), manager.Path())
	for _, o := range list {
		fmt.Printf("%s -> %s\n", o.QID, o.Name)
		if o.Reason != "" {
			fmt.Printf("  Reason: %s\n", o.Reason)
		}
		fmt.Printf("  Created At: %s\n", o.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
