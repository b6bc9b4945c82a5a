// Command fseek runs a fuzzy search over local text files and prints the
// matching files best first, with matched words highlighted.
//
// Usage:
//
//	go run ./cmd/fseek -q "query" [-exact] [-consecutive] [-locale en] file...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/logger"
)

func main() {
	query := flag.String("q", "", "query to search for")
	exact := flag.Bool("exact", false, "disable fuzzy word matching")
	consecutive := flag.Bool("consecutive", false, "require query words to be adjacent")
	locale := flag.String("locale", "", "locale of the files and query")
	similarity := flag.Float64("similarity", searcher.DefaultSimilarity, "minimum word similarity in [0, 1]")
	ngram := flag.Int("ngram", 2, "n-gram size")
	limit := flag.Int("limit", 0, "maximum number of results (0 = all)")
	stemming := flag.Bool("stem", false, "stem words with the snowball stemmer")
	stopWords := flag.Bool("stopwords", false, "ignore English stop words")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Setup(level, "text")

	if strings.TrimSpace(*query) == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: fseek -q query [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default().Search
	cfg.Similarity = *similarity
	cfg.NGramSize = *ngram
	cfg.Stemming = *stemming
	cfg.StopWords = *stopWords
	cfg.MaxDocuments = 0
	engine, err := searcher.New(searcher.OptionsFromConfig(cfg), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fseek: %v\n", err)
		os.Exit(1)
	}

	docs := make([]searcher.Document, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fseek: %v\n", err)
			os.Exit(1)
		}
		docs = append(docs, searcher.Document{ID: path, Text: string(data)})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := engine.Search(ctx, docs, *query, searcher.QueryOptions{
		Exact:       *exact,
		Consecutive: *consecutive,
		Locale:      *locale,
		Limit:       *limit,
	})
	if err != nil {
		slog.Error("search failed", "error", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		os.Exit(1)
	}
	for _, r := range results {
		fmt.Printf("%s (score %.2f)\n", r.Document.ID, r.Score)
		fmt.Println(excerpt(searcher.Highlight(r.Document.Text, r.Marks, "**", "**")))
		fmt.Println()
	}
}

// excerpt trims long texts to the lines carrying highlights.
func excerpt(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= 5 {
		return text
	}
	kept := make([]string, 0, 5)
	for _, l := range lines {
		if strings.Contains(l, "**") {
			kept = append(kept, "  "+strings.TrimSpace(l))
		}
	}
	return strings.Join(kept, "\n")
}
