package pipeline

import (
	"context"
	"errors"

	"github.com/bighogz/insider-ledger/internal/models"
)

// Fetcher is the data-retrieval collaborator. It returns the raw record set
// for a ticker, possibly empty, or an error.
type Fetcher interface {
	InsiderTransactions(ctx context.Context, ticker string) ([]models.RawRecord, error)
}

// Named is a Fetcher that can say where its records come from. Reports carry
// the name of the source that answered.
type Named interface {
	Name() string
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ticker string) ([]models.RawRecord, error)

func (f FetcherFunc) InsiderTransactions(ctx context.Context, ticker string) ([]models.RawRecord, error) {
	return f(ctx, ticker)
}

// Fallback tries each source in order and returns the first non-empty
// record set. An empty success is returned only if no later source has
// records; if every source fails the joined errors are returned.
type Fallback []Fetcher

func (f Fallback) InsiderTransactions(ctx context.Context, ticker string) ([]models.RawRecord, error) {
	recs, _, err := f.Fetch(ctx, ticker)
	return recs, err
}

// Fetch is InsiderTransactions plus the name of the source that answered.
// For an empty success that is the first source that succeeded.
func (f Fallback) Fetch(ctx context.Context, ticker string) ([]models.RawRecord, string, error) {
	if len(f) == 0 {
		return nil, "", errors.New("no insider data source configured")
	}
	var errs []error
	succeeded := false
	emptySource := ""
	for _, src := range f {
		recs, err := src.InsiderTransactions(ctx, ticker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(recs) > 0 {
			return recs, sourceName(src), nil
		}
		if !succeeded {
			succeeded = true
			emptySource = sourceName(src)
		}
	}
	if succeeded {
		return []models.RawRecord{}, emptySource, nil
	}
	return nil, "", errors.Join(errs...)
}

// Names lists the configured sources in order.
func (f Fallback) Names() []string {
	out := make([]string, 0, len(f))
	for _, src := range f {
		if n := sourceName(src); n != "" {
			out = append(out, n)
		}
	}
	return out
}

type sourcedFetcher interface {
	Fetch(ctx context.Context, ticker string) ([]models.RawRecord, string, error)
}

// fetch calls f and reports which source answered, if f can tell.
func fetch(ctx context.Context, f Fetcher, ticker string) ([]models.RawRecord, string, error) {
	if sf, ok := f.(sourcedFetcher); ok {
		return sf.Fetch(ctx, ticker)
	}
	recs, err := f.InsiderTransactions(ctx, ticker)
	if err != nil {
		return nil, "", err
	}
	return recs, sourceName(f), nil
}

func sourceName(f Fetcher) string {
	if n, ok := f.(Named); ok {
		return n.Name()
	}
	return ""
}
