package main

import (
	"fmt"

	"github.com/nao1215/anteater/internal/tokenize"
	"github.com/spf13/cobra"
)

// NewCommonCmd creates the common command.
func NewCommonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "common <file1> <file2>",
		Short: "Count the distinct tokens two text files share",
		Long: `Common tokenizes two text files and prints how many distinct tokens
appear in both. Repeated tokens count once.

Example:
  anteater common syllabus-2024.txt syllabus-2025.txt`,
		Args: cobra.ExactArgs(2),
		RunE: runCommonCmd,
	}
}

// runCommonCmd executes the common command.
func runCommonCmd(cmd *cobra.Command, args []string) error {
	tokenizer := tokenize.New()
	first, err := fileFrequencies(args[0], tokenizer)
	if err != nil {
		return err
	}
	second, err := fileFrequencies(args[1], tokenizer)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tokenize.CommonTokens(first, second))
	return nil
}
