// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fineprint/internal/detector"
	"fineprint/internal/suppressions"
)

var suppressionsCmd = &cobra.Command{
	Use:   "suppressions",
	Short: "Manage suppression rules for known-acceptable findings",
}

var suppressionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all suppression rules",
	RunE:  runSuppressionsList,
}

var suppressionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a suppression rule for a matched text",
	RunE:  runSuppressionsAdd,
}

var suppressionsRemoveCmd = &cobra.Command{
	Use:   "remove <rule-id>",
	Short: "Remove a suppression rule by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuppressionsRemove,
}

func init() {
	suppressionsCmd.PersistentFlags().String("file", suppressions.DefaultFileName, "path to the suppressions file")

	suppressionsAddCmd.Flags().String("type", "", "risk type the rule applies to (empty matches any)")
	suppressionsAddCmd.Flags().String("match", "", "matched text to suppress (required)")
	suppressionsAddCmd.Flags().String("reason", "", "why this finding is acceptable (required)")
	suppressionsAddCmd.Flags().Int("expires-days", 0, "days until the rule expires (default 7)")
	_ = suppressionsAddCmd.MarkFlagRequired("match")
	_ = suppressionsAddCmd.MarkFlagRequired("reason")

	suppressionsCmd.AddCommand(suppressionsListCmd)
	suppressionsCmd.AddCommand(suppressionsAddCmd)
	suppressionsCmd.AddCommand(suppressionsRemoveCmd)
}

func suppressionManager(cmd *cobra.Command) (*suppressions.Manager, error) {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return nil, fmt.Errorf("failed to get file flag: %w", err)
	}
	return suppressions.NewManager(path), nil
}

func runSuppressionsList(cmd *cobra.Command, _ []string) error {
	manager, err := suppressionManager(cmd)
	if err != nil {
		return err
	}

	rules := manager.List()
	if len(rules) == 0 {
		fmt.Println("No suppression rules found.")
		return nil
	}

	fmt.Printf("Found %d suppression rules in %s:\n\n", len(rules), manager.Path())
	for _, rule := range rules {
		fmt.Printf("ID: %s\n", rule.ID)
		if rule.RiskType != "" {
			fmt.Printf("Type: %s\n", rule.RiskType)
		}
		if rule.Match != "" {
			fmt.Printf("Match: %s\n", rule.Match)
		}
		if rule.Pattern != "" {
			fmt.Printf("Pattern: %s\n", rule.Pattern)
		}
		fmt.Printf("Reason: %s\n", rule.Reason)
		fmt.Printf("Enabled: %t\n", rule.Enabled)
		if rule.CreatedBy != "" {
			fmt.Printf("Created By: %s\n", rule.CreatedBy)
		}
		fmt.Printf("Created At: %s\n", rule.CreatedAt.Format("2006-01-02 15:04:05"))
		if rule.ExpiresAt != nil {
			fmt.Printf("Expires At: %s\n", rule.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println("---")
	}
	return nil
}

func runSuppressionsAdd(cmd *cobra.Command, _ []string) error {
	manager, err := suppressionManager(cmd)
	if err != nil {
		return err
	}

	riskType, _ := cmd.Flags().GetString("type")
	if riskType != "" && !detector.RiskType(riskType).Valid() {
		return fmt.Errorf("unknown risk type %q (one of: %v)", riskType, detector.AllRiskTypes)
	}
	match, _ := cmd.Flags().GetString("match")
	reason, _ := cmd.Flags().GetString("reason")

	var expiresAt *time.Time
	if days, _ := cmd.Flags().GetInt("expires-days"); days > 0 {
		t := time.Now().AddDate(0, 0, days)
		expiresAt = &t
	}

	createdBy := os.Getenv("USER")
	if createdBy == "" {
		createdBy = "cli"
	}

	rule, err := manager.Add(detector.RiskType(riskType), match, reason, createdBy, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to add suppression: %w", err)
	}
	fmt.Printf("Added suppression rule %s (expires %s)\n", rule.ID, rule.ExpiresAt.Format("2006-01-02"))
	return nil
}

func runSuppressionsRemove(cmd *cobra.Command, args []string) error {
	manager, err := suppressionManager(cmd)
	if err != nil {
		return err
	}
	if err := manager.Remove(args[0]); err != nil {
		return fmt.Errorf("failed to remove suppression: %w", err)
	}
	fmt.Printf("Removed suppression rule %s\n", args[0])
	return nil
}
