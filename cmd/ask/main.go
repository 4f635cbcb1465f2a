package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docgraph/docgraph/internal/app"
	"github.com/docgraph/docgraph/internal/config"
	"github.com/docgraph/docgraph/pkg/query"

	"github.com/spf13/cobra"
)

const defaultQuestion = "Which pages mention contingency or change orders?"

var (
	configPath string
	entities   []string
	asJSON     bool

	rootCmd = &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer a question over the indexed documents with citations",
		RunE:  runAsk,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().StringArrayVarP(&entities, "entity", "e", nil, "Scope to an entity name (repeatable)")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Print the response as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.InitLogger(cfg)

	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		question = defaultQuestion
	}

	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := engine.Ask(cmd.Context(), question, entities)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResponse(cmd.OutOrStdout(), res)
	return nil
}

func printResponse(w io.Writer, res *query.Response) {
	fmt.Fprintf(w, "\nQ: %s\n", res.Question)
	fmt.Fprintf(w, "\nA: %s\n", res.Answer)
	fmt.Fprintln(w, "\nCitations:")
	if len(res.Citations) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range res.Citations {
		page := "-"
		if c.Page != nil {
			page = fmt.Sprintf("%d", *c.Page)
		}
		fmt.Fprintf(w, "  [[%s]] %s page %s (%s)\n", c.ID, c.DocName, page, c.Type)
	}
}
