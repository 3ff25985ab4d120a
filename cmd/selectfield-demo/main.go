// Command selectfield-demo runs an interactive searchable select in the
// terminal. Options come from an in-memory language list, or from a SQLite
// table when -db is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	selectfield "github.com/goliatone/go-selectfield"
	"github.com/goliatone/go-selectfield/pkg/store"
	"github.com/goliatone/go-selectfield/pkg/store/sqlitestore"
)

const doneLabel = "(done)"

func main() {
	dbPath := flag.String("db", "", "SQLite database path (in-memory sample data if empty)")
	table := flag.String("table", "tags", "table to search when -db is set")
	keyColumn := flag.String("key", "id", "key column of the table")
	titleColumn := flag.String("title", "name", "column used as the option label")
	multiple := flag.Bool("multiple", false, "allow selecting more than one option")
	debounce := flag.Duration("debounce", 300*time.Millisecond, "search debounce window")
	flag.Parse()

	st, err := openStore(*dbPath, *table, *keyColumn, *titleColumn)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	opts := []selectfield.Option{
		selectfield.WithSearchable(*titleColumn),
		selectfield.WithRelation(st, *titleColumn),
		selectfield.WithSearchDebounce(*debounce),
	}
	if *multiple {
		opts = append(opts, selectfield.WithMultiple())
	}

	field, err := selectfield.New(opts...)
	if err != nil {
		log.Fatalf("build field: %v", err)
	}
	defer field.Close()

	ctx := context.Background()
	if err := field.Focus(ctx); err != nil {
		log.Fatalf("focus: %v", err)
	}

	for {
		var query string
		prompt := &survey.Input{
			Message: "Search:",
			Help:    "press enter on an empty query to stop searching",
		}
		if err := survey.AskOne(prompt, &query); err != nil {
			log.Fatal(err)
		}
		if strings.TrimSpace(query) == "" {
			break
		}

		// Feed the query as keystrokes and let the debounce window elapse so
		// the field behaves the way it does behind a live input.
		for i := range query {
			if i > 0 {
				field.Keystroke(query[:i])
			}
		}
		field.Keystroke(query)
		time.Sleep(*debounce + 50*time.Millisecond)

		snap := field.Snapshot()
		if snap.SearchFailed != "" {
			fmt.Printf("search failed: %s\n", snap.SearchFailed)
			continue
		}
		if len(snap.Candidates) == 0 {
			fmt.Println(snap.Message)
			continue
		}

		choices := []string{doneLabel}
		byLabel := map[string]string{}
		for _, entry := range snap.Candidates {
			label := entry.Label
			if entry.Disabled {
				label += " (disabled)"
			}
			choices = append(choices, label)
			byLabel[label] = entry.Key
		}

		var picked string
		if err := survey.AskOne(&survey.Select{Message: "Pick an option:", Options: choices}, &picked); err != nil {
			log.Fatal(err)
		}
		if picked == doneLabel {
			continue
		}
		if err := field.Select(ctx, byLabel[picked]); err != nil {
			fmt.Printf("select: %v\n", err)
		}
		printSelection(field)
		if !*multiple {
			break
		}
	}

	if err := field.Validate(); err != nil {
		log.Fatalf("validation: %v", err)
	}
	fmt.Printf("value: %v\n", field.Value())
}

func printSelection(field *selectfield.Field) {
	snap := field.Snapshot()
	if len(snap.Selected) == 0 {
		fmt.Println("selected: (none)")
		return
	}
	labels := make([]string, 0, len(snap.Selected))
	for _, entry := range snap.Selected {
		labels = append(labels, entry.Label)
	}
	fmt.Printf("selected: %s\n", strings.Join(labels, ", "))
}

func openStore(path, table, keyColumn, titleColumn string) (store.RecordStore, error) {
	if path != "" {
		return sqlitestore.Open(path, table, keyColumn, []string{titleColumn})
	}

	return store.NewMemory(
		store.Record{Key: "go", Columns: map[string]string{"name": "Go"}},
		store.Record{Key: "python", Columns: map[string]string{"name": "Python"}},
		store.Record{Key: "ruby", Columns: map[string]string{"name": "Ruby"}},
		store.Record{Key: "rust", Columns: map[string]string{"name": "Rust"}},
		store.Record{Key: "zig", Columns: map[string]string{"name": "Zig"}},
		store.Record{Key: "erlang", Columns: map[string]string{"name": "Erlang"}},
	), nil
}
