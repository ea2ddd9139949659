package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nao1215/anteater/internal/report"
	"github.com/nao1215/anteater/internal/tokenize"
	"github.com/spf13/cobra"
)

// maxLineSize bounds a single line read from a text file.
const maxLineSize = 1024 * 1024

// NewWordsCmd creates the words command.
func NewWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words <file>",
		Short: "Print the word frequencies of a text file",
		Long: `Words tokenizes a text file the same way crawled pages are tokenized and
prints one "token -> count" line per token, most frequent first. Ties are
broken alphabetically.

Examples:
  # Count every token
  anteater words notes.txt

  # Top 20 tokens without English stopwords
  anteater words --exclude-stopwords -n 20 notes.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runWordsCmd,
	}

	cmd.Flags().IntP("top", "n", 0,
		"Print only the most frequent tokens (0 = all)")
	cmd.Flags().BoolP("exclude-stopwords", "x", false,
		"Skip stopwords")
	cmd.Flags().String("stopwords", "",
		"Stopword file used with --exclude-stopwords (default: built-in English list)")

	return cmd
}

// runWordsCmd executes the words command.
func runWordsCmd(cmd *cobra.Command, args []string) error {
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}
	exclude, err := cmd.Flags().GetBool("exclude-stopwords")
	if err != nil {
		return err
	}
	stopwordsFile, err := cmd.Flags().GetString("stopwords")
	if err != nil {
		return err
	}

	var opts []tokenize.Option
	if exclude {
		stopwords := tokenize.DefaultStopwords()
		if stopwordsFile != "" {
			if stopwords, err = tokenize.LoadStopwordsFile(stopwordsFile); err != nil {
				return err
			}
		}
		opts = append(opts, tokenize.WithStopwords(stopwords))
	}

	table, err := fileFrequencies(args[0], tokenize.New(opts...))
	if err != nil {
		return err
	}
	_, err = report.WriteFrequencies(cmd.OutOrStdout(), tokenize.TopN(table, top, nil))
	return err
}

// fileFrequencies tokenizes the file at path line by line.
func fileFrequencies(path string, tokenizer *tokenize.Tokenizer) (tokenize.Table, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return tokenizer.Frequencies(tokenizer.Tokenize(lines)), nil
}

// readLines returns the lines of the file at path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
