package wordsource

import (
	"context"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"crosswarped.com/bee/internal"
)

var tableName = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+){1,2}$`)

// BigQuerySource reads the dictionary and frequency tables from BigQuery.
//
// DictionaryTable must have columns (word STRING, definition STRING) and
// FrequencyTable (word STRING, frequency FLOAT64). Either may be empty to skip it.
type BigQuerySource struct {
	Project         string
	Location        string
	DictionaryTable string
	FrequencyTable  string
}

// Tables is what a BigQuerySource loads.
type Tables struct {
	Definitions map[string]string
	Frequencies map[string]float64
}

// Load reads both tables concurrently.
func (s BigQuerySource) Load(ctx context.Context) (Tables, error) {
	client, err := bigquery.NewClient(ctx, s.Project)
	if err != nil {
		return Tables{}, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	defer client.Close()

	var tables Tables
	g, ctx := errgroup.WithContext(ctx)
	if s.DictionaryTable != "" {
		g.Go(func() error {
			defs, err := s.readDefinitions(ctx, client)
			if err != nil {
				return fmt.Errorf("read dictionary: %w", err)
			}
			tables.Definitions = defs
			return nil
		})
	}
	if s.FrequencyTable != "" {
		g.Go(func() error {
			freq, err := s.readFrequencies(ctx, client)
			if err != nil {
				return fmt.Errorf("read frequencies: %w", err)
			}
			tables.Frequencies = freq
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

func (s BigQuerySource) readDefinitions(ctx context.Context, client *bigquery.Client) (map[string]string, error) {
	defs := make(map[string]string)
	err := s.query(ctx, client, s.DictionaryTable, "word, definition", func(row []bigquery.Value) error {
		word, def, err := definitionRow(row)
		if err != nil {
			return err
		}
		if word != "" && defs[word] == "" {
			defs[word] = def
		}
		return nil
	})
	return defs, err
}

func (s BigQuerySource) readFrequencies(ctx context.Context, client *bigquery.Client) (map[string]float64, error) {
	freq := make(map[string]float64)
	err := s.query(ctx, client, s.FrequencyTable, "word, frequency", func(row []bigquery.Value) error {
		word, f, err := frequencyRow(row)
		if err != nil {
			return err
		}
		if word != "" {
			freq[word] = f
		}
		return nil
	})
	return freq, err
}

func (s BigQuerySource) query(ctx context.Context, client *bigquery.Client, table, columns string, fn func([]bigquery.Value) error) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	q := client.Query(fmt.Sprintf("SELECT %s FROM `%s`", columns, table))
	if s.Location != "" {
		q.Location = s.Location
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("q.Run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("job.Wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("status.Err: %w", err)
	}
	it, err := job.Read(ctx)
	if err != nil {
		return fmt.Errorf("job.Read: %w", err)
	}

	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("it.Next: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

func definitionRow(row []bigquery.Value) (string, string, error) {
	if len(row) != 2 {
		return "", "", fmt.Errorf("want 2 columns, got %d", len(row))
	}
	word, ok := row[0].(string)
	if !ok {
		return "", "", fmt.Errorf("row[0] is not a string: %v", row[0])
	}
	// NULL definitions come back as nil.
	def, _ := row[1].(string)
	return internal.NormalizeWord(word), def, nil
}

func frequencyRow(row []bigquery.Value) (string, float64, error) {
	if len(row) != 2 {
		return "", 0, fmt.Errorf("want 2 columns, got %d", len(row))
	}
	word, ok := row[0].(string)
	if !ok {
		return "", 0, fmt.Errorf("row[0] is not a string: %v", row[0])
	}
	var f float64
	switch v := row[1].(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	case nil:
	default:
		return "", 0, fmt.Errorf("row[1] is not a number: %v", row[1])
	}
	return internal.NormalizeWord(word), f, nil
}
