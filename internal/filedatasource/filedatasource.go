// Package filedatasource implements the "filesystem" data source
// connector §3/§4.8 indexers pull from: a directory of JSON documents,
// one file per document, change-tracked by file modification time.
package filedatasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/localsearch/simulator/internal/catalog"
	"github.com/localsearch/simulator/internal/indexerrun"
)

// Connector enumerates the JSON files directly under a container
// directory, treating each file's base name (without extension) as the
// document key and its modification time (as a Unix-nanosecond string)
// as the high-water-mark value.
type Connector struct {
	root string
}

// New builds a filesystem connector rooted at a data source definition's
// Container path.
func New(root string) *Connector {
	return &Connector{root: root}
}

// Enumerate lists every *.json file modified strictly after
// sinceHighWaterMark (an empty mark enumerates everything).
func (c *Connector) Enumerate(ctx context.Context, sinceHighWaterMark string) ([]indexerrun.SourceDocument, error) {
	var since int64
	if sinceHighWaterMark != "" {
		since, _ = strconv.ParseInt(sinceHighWaterMark, 10, 64)
	}

	entries, err := os.ReadDir(c.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []indexerrun.SourceDocument
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		mtime := info.ModTime().UnixNano()
		if mtime <= since {
			continue
		}
		path := filepath.Join(c.root, entry.Name())
		key := entry.Name()[:len(entry.Name())-len(".json")]
		out = append(out, indexerrun.SourceDocument{
			Key:                key,
			HighWaterMarkValue: strconv.FormatInt(mtime, 10),
			FetchBody: func(ctx context.Context) ([]byte, error) {
				return os.ReadFile(path)
			},
		})
	}
	return out, nil
}

var _ indexerrun.DataSource = (*Connector)(nil)

type ctxIndexerNameKey struct{}

// WithIndexerName attaches the running indexer's name to ctx, so a
// Dispatcher's Enumerate call (which only sees ctx and a high-water
// mark, per indexerrun.DataSource) can resolve which data source
// definition to read from.
func WithIndexerName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxIndexerNameKey{}, name)
}

// Dispatcher is the single indexerrun.DataSource a Runner is built with:
// it resolves the concrete connector per run from the indexer definition
// and data source catalogued under the name WithIndexerName attached to
// the call's context, rather than binding one Runner to one fixed data
// source.
type Dispatcher struct {
	Catalog *catalog.Catalog
}

func (d *Dispatcher) Enumerate(ctx context.Context, sinceHighWaterMark string) ([]indexerrun.SourceDocument, error) {
	indexerName, _ := ctx.Value(ctxIndexerNameKey{}).(string)
	def, ok := d.Catalog.GetIndexer(indexerName)
	if !ok {
		return nil, fmt.Errorf("filedatasource: indexer %q not found", indexerName)
	}
	ds, ok := d.Catalog.GetDataSource(def.DataSourceName)
	if !ok {
		return nil, fmt.Errorf("filedatasource: data source %q not found", def.DataSourceName)
	}
	switch ds.Type {
	case "filesystem", "":
		return New(ds.Container).Enumerate(ctx, sinceHighWaterMark)
	default:
		return nil, fmt.Errorf("filedatasource: unsupported data source type %q", ds.Type)
	}
}

var _ indexerrun.DataSource = (*Dispatcher)(nil)
