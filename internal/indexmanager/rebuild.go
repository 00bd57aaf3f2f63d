package indexmanager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mu-semtech/delta-indexer/internal/config"
	"github.com/mu-semtech/delta-indexer/internal/registry"
)

// rebuildLockTTL bounds how long a crashed replica can wedge another
// replica out of rebuilding the same index.
const rebuildLockTTL = 10 * time.Minute

// Rebuild performs a full rebuild of idx under the per-index mutex (spec
// §4.4 "Update"): clear, stream every resource of the configured
// rdf_types, build and upsert in batches, refresh, then transition to
// valid. Pages of batch_size resources are fetched one after another;
// when max_batches is positive, at most max_batches pages are fetched and
// resources beyond them are not indexed. Any failure transitions back to
// invalid and is logged — it never panics or returns an error, matching
// the Index Manager's role as the last line of defense around a single
// rebuild.
func (m *Manager) Rebuild(ctx context.Context, idx *registry.Index, groups config.AllowedGroups) {
	if m.Locker != nil {
		ok, err := m.Locker.TryLock(ctx, idx.Name, rebuildLockTTL)
		if err != nil {
			m.logf("acquire rebuild lock for %s: %v", idx.Name, err)
			return
		}
		if !ok {
			return
		}
		defer m.Locker.Unlock(ctx, idx.Name)
	}

	idx.Lock()
	defer idx.Unlock()
	idx.BeginUpdate()

	if err := m.Search.ClearIndex(ctx, idx.Name); err != nil {
		idx.Fail()
		m.logf("clear index %s: %v", idx.Name, err)
		return
	}

	rdfTypes := m.Model.RelatedRDFTypes(idx.TypeName)
	batchSize := m.Settings.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	offset := 0
	for batches := 0; m.Settings.MaxBatches <= 0 || batches < m.Settings.MaxBatches; batches++ {
		uris, err := m.fetchResourcePage(ctx, rdfTypes, groups, offset, batchSize)
		if err != nil {
			idx.Fail()
			m.logf("stream resources for %s: %v", idx.Name, err)
			return
		}
		if len(uris) == 0 {
			break
		}

		m.upsertBatch(ctx, idx, idx.TypeName, groups, uris)

		offset += len(uris)
		if len(uris) < batchSize {
			break
		}
	}

	if err := m.Search.RefreshIndex(ctx, idx.Name); err != nil {
		idx.Fail()
		m.logf("refresh index %s: %v", idx.Name, err)
		return
	}
	idx.Succeed()
}

func (m *Manager) fetchResourcePage(ctx context.Context, rdfTypes []string, groups config.AllowedGroups, offset, limit int) ([]string, error) {
	typeList := make([]string, len(rdfTypes))
	for i, t := range rdfTypes {
		typeList[i] = "<" + t + ">"
	}
	query := fmt.Sprintf(
		"SELECT DISTINCT ?s WHERE { ?s a ?type . FILTER(?type IN (%s)) . } ORDER BY ?s LIMIT %d OFFSET %d",
		strings.Join(typeList, ", "), limit, offset,
	)

	bindings, err := m.Gateway.Select(ctx, query, groups)
	if err != nil {
		return nil, err
	}
	uris := make([]string, 0, len(bindings))
	for _, b := range bindings {
		uris = append(uris, b["s"].Value)
	}
	return uris, nil
}

// upsertBatch builds and upserts every uri concurrently, bounded by
// number_of_threads. A single document's build/upsert failure is logged
// and skipped — it never aborts the batch or the rebuild (spec §7 "No
// error in indexing a single document aborts a whole rebuild").
func (m *Manager) upsertBatch(ctx context.Context, idx *registry.Index, typeName string, groups config.AllowedGroups, uris []string) {
	threads := m.Settings.NumberOfThreads
	if threads <= 0 {
		threads = 4
	}

	var g errgroup.Group
	g.SetLimit(threads)
	for _, uri := range uris {
		uri := uri
		g.Go(func() error {
			doc, err := m.Builder.Build(ctx, uri, typeName, groups)
			if err != nil {
				m.logf("build document %s for %s: %v", uri, idx.Name, err)
				return nil
			}
			if err := m.Search.UpsertDocument(ctx, idx.Name, uri, doc); err != nil {
				m.logf("upsert document %s into %s: %v", uri, idx.Name, err)
			}
			return nil
		})
	}
	g.Wait()
}
