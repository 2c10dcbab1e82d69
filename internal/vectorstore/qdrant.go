package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
)

// tieSlack extra points are fetched per query so that equal scores at the
// k-th position can be re-ordered by seq before truncation.
const tieSlack = 16

// QdrantIndex implements Index on Qdrant collections reached through aliases.
// The alias "<collection>" names the data collection of the active generation
// and "<collection>_meta" its one-point fingerprint collection. Replace writes
// a new generation and switches both aliases in a single request, so readers
// see either the old content or the new one. Point IDs are the insertion
// sequence numbers. Writers are serialized within this process only.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string

	mu        sync.RWMutex
	active    generation
	dimension int
	nextSeq   uint64
}

// qdrantEndpoint derives the gRPC host and port from an HTTP URL such as
// "http://localhost:6333". The gRPC port is the HTTP port + 1.
func qdrantEndpoint(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err != nil {
			return "", 0, fmt.Errorf("invalid Qdrant port %q: %w", parsedURL.Port(), err)
		}
		port = httpPort + 1
	}
	return host, port, nil
}

// NewQdrantIndex connects to Qdrant and reads the current collection state.
func NewQdrantIndex(ctx context.Context, urlStr, collection string) (*QdrantIndex, error) {
	host, port, err := qdrantEndpoint(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	idx := &QdrantIndex{client: client, collection: collection}
	if err := idx.loadState(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return idx, nil
}

func (q *QdrantIndex) metaAlias() string {
	return q.collection + "_meta"
}

// generation is one set of collections written by Replace. Either name is
// empty when that part holds nothing.
type generation struct {
	data string
	meta string
}

func generationNames(collection string, n uint64) generation {
	return generation{
		data: fmt.Sprintf("%s_g%d", collection, n),
		meta: fmt.Sprintf("%s_meta_g%d", collection, n),
	}
}

// parseGeneration returns the generation number of a collection created for
// collection, or false for any other name.
func parseGeneration(collection, name string) (uint64, bool) {
	for _, prefix := range []string{collection + "_meta_g", collection + "_g"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}
		n, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// nextGeneration picks a generation numbered above every existing one,
// including leftovers of a Replace that never switched.
func nextGeneration(collection string, existing []string) generation {
	var highest uint64
	for _, name := range existing {
		if n, ok := parseGeneration(collection, name); ok && n > highest {
			highest = n
		}
	}
	return generationNames(collection, highest+1)
}

// swapActions points both aliases at next in one request. Aliases for parts
// next does not have are dropped.
func swapActions(collection string, current, next generation) []*qdrant.AliasOperations {
	metaAlias := collection + "_meta"
	var actions []*qdrant.AliasOperations
	if current.data != "" {
		actions = append(actions, qdrant.NewAliasDelete(collection))
	}
	if current.meta != "" {
		actions = append(actions, qdrant.NewAliasDelete(metaAlias))
	}
	if next.data != "" {
		actions = append(actions, qdrant.NewAliasCreate(collection, next.data))
	}
	if next.meta != "" {
		actions = append(actions, qdrant.NewAliasCreate(metaAlias, next.meta))
	}
	return actions
}

// staleCollections lists the generation collections other than keep.
func staleCollections(collection string, existing []string, keep generation) []string {
	var stale []string
	for _, name := range existing {
		if name == keep.data || name == keep.meta {
			continue
		}
		if _, ok := parseGeneration(collection, name); ok {
			stale = append(stale, name)
		}
	}
	return stale
}

// loadState resolves the aliases and reads the vector size and point count
// of the active data collection.
func (q *QdrantIndex) loadState(ctx context.Context) error {
	aliases, err := q.client.ListAliases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list aliases: %w", err)
	}
	for _, alias := range aliases {
		switch alias.GetAliasName() {
		case q.collection:
			q.active.data = alias.GetCollectionName()
		case q.metaAlias():
			q.active.meta = alias.GetCollectionName()
		}
	}
	if q.active.data == "" {
		return nil
	}

	info, err := q.client.GetCollectionInfo(ctx, q.active.data)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	if config := info.Config; config != nil && config.Params != nil {
		if vectorsConfig := config.Params.GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil {
				q.dimension = int(params.Size)
			}
		}
	}

	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.active.data,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to count points: %w", err)
	}
	// Sequence numbers are contiguous from 1 because points are never deleted individually.
	q.nextSeq = count
	return nil
}

// Insert upserts entries as points, creating the collection on first use.
func (q *QdrantIndex) Insert(ctx context.Context, entries []Entry) error {
	logger := contextutil.LoggerFromContext(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()

	dim, err := batchDimension(q.dimension, entries)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	if q.active.data == "" {
		if err := q.attachDataCollection(ctx, dim); err != nil {
			return err
		}
	}

	staged, nextSeq := sequenceFrom(q.nextSeq, entries)
	if err := q.upsert(ctx, q.active.data, staged); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", q.active.data, "count", len(staged), "error", err)
		return err
	}

	q.dimension = dim
	q.nextSeq = nextSeq
	logger.InfoContext(ctx, "upserted points", "collection", q.active.data, "count", len(staged))
	return nil
}

// attachDataCollection creates a data collection for the first Insert into an
// index without one and points the alias at it, keeping the fingerprint.
func (q *QdrantIndex) attachDataCollection(ctx context.Context, dim int) error {
	existing, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	next := generation{data: nextGeneration(q.collection, existing).data, meta: q.active.meta}
	if err := q.createCollection(ctx, next.data, dim); err != nil {
		return err
	}
	if err := q.client.UpdateAliases(ctx, swapActions(q.collection, q.active, next)); err != nil {
		q.dropCollections(ctx, []string{next.data})
		return fmt.Errorf("failed to switch alias %s: %w", q.collection, err)
	}
	q.active = next
	return nil
}

func (q *QdrantIndex) upsert(ctx context.Context, collection string, entries []Entry) error {
	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		payload, err := qdrant.TryValueMap(map[string]any{
			"chunk_id":    e.Chunk.ID,
			"document_id": e.Chunk.DocumentID,
			"source":      e.Chunk.Source,
			"chunk_index": e.Chunk.Index,
			"text":        e.Chunk.Text,
			"start":       e.Chunk.Start,
			"end":         e.Chunk.End,
		})
		if err != nil {
			return fmt.Errorf("invalid payload for %s: %w", e.Chunk.ID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(e.Seq),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: payload,
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

func (q *QdrantIndex) createCollection(ctx context.Context, name string, dim int) error {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "creating collection", "collection", name, "vector_size", dim)

	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Query asks Qdrant for the nearest points and re-applies the seq tie-break.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q.mu.RLock()
	defer q.mu.RUnlock()

	if err := checkQuery(q.dimension, vector, k); err != nil {
		return nil, err
	}
	if q.dimension == 0 || q.active.data == "" {
		return []Result{}, nil
	}

	limit := uint64(k + tieSlack)
	scoredPoints, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.active.data,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", q.active.data, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]Result, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		var seq uint64
		if point.Id != nil {
			seq = point.Id.GetNum()
		}
		results = append(results, Result{
			Chunk: chunkFromPayload(convertPayloadToMap(point.Payload)),
			Score: point.Score,
			Seq:   seq,
		})
	}

	results = sortResults(results, k)
	logger.DebugContext(ctx, "search completed", "collection", q.active.data, "k", k, "results", len(results))
	return results, nil
}

// Reset switches the aliases away and drops every generation.
func (q *QdrantIndex) Reset(ctx context.Context) error {
	return q.Replace(ctx, nil, "")
}

// Replace writes entries and fingerprint into a new generation, then switches
// the aliases to it. On failure before the switch the new collections are
// dropped and the active generation is untouched.
func (q *QdrantIndex) Replace(ctx context.Context, entries []Entry, fingerprint string) error {
	logger := contextutil.LoggerFromContext(ctx)

	dim, err := batchDimension(0, entries)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	existing, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	next := nextGeneration(q.collection, existing)
	if len(entries) == 0 {
		next.data = ""
	}
	if fingerprint == "" {
		next.meta = ""
	}

	var nextSeq uint64
	var created []string
	err = func() error {
		if next.data != "" {
			if err := q.createCollection(ctx, next.data, dim); err != nil {
				return err
			}
			created = append(created, next.data)
			var staged []Entry
			staged, nextSeq = sequenceFrom(0, entries)
			if err := q.upsert(ctx, next.data, staged); err != nil {
				return err
			}
		}
		if next.meta != "" {
			created = append(created, next.meta)
			if err := q.putFingerprint(ctx, next.meta, fingerprint); err != nil {
				return err
			}
		}
		if actions := swapActions(q.collection, q.active, next); len(actions) > 0 {
			if err := q.client.UpdateAliases(ctx, actions); err != nil {
				return fmt.Errorf("failed to switch alias %s: %w", q.collection, err)
			}
		}
		return nil
	}()
	if err != nil {
		logger.ErrorContext(ctx, "replace failed, keeping active generation", "collection", q.collection, "error", err)
		q.dropCollections(ctx, created)
		return err
	}

	q.active = next
	q.dimension = 0
	q.nextSeq = 0
	if next.data != "" {
		q.dimension = dim
		q.nextSeq = nextSeq
	}
	q.dropCollections(ctx, staleCollections(q.collection, existing, next))

	logger.InfoContext(ctx, "index replaced", "backend", "qdrant", "generation", next.data, "count", len(entries), "dimension", dim)
	return nil
}

// dropCollections deletes collections that no alias points at. Failures are
// logged; the next Replace retries them.
func (q *QdrantIndex) dropCollections(ctx context.Context, names []string) {
	logger := contextutil.LoggerFromContext(ctx)
	for _, name := range names {
		if err := q.client.DeleteCollection(ctx, name); err != nil {
			logger.WarnContext(ctx, "failed to delete collection", "collection", name, "error", err)
		}
	}
}

func (q *QdrantIndex) putFingerprint(ctx context.Context, name, fingerprint string) error {
	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     1,
			Distance: qdrant.Distance_Dot,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create meta collection: %w", err)
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDNum(1),
			Vectors: qdrant.NewVectors(1),
			Payload: qdrant.NewValueMap(map[string]any{"fingerprint": fingerprint}),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to store fingerprint: %w", err)
	}
	return nil
}

// Count returns the number of points written.
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return int(q.nextSeq), nil
}

// Fingerprint reads the active generation's meta collection.
func (q *QdrantIndex) Fingerprint(ctx context.Context) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.active.meta == "" {
		return "", nil
	}
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.active.meta,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(1)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read fingerprint: %w", err)
	}
	if len(points) == 0 {
		return "", nil
	}
	fp, _ := convertPayloadToMap(points[0].Payload)["fingerprint"].(string)
	return fp, nil
}

// Close closes the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func chunkFromPayload(meta map[string]any) indexer.Chunk {
	text, _ := meta["text"].(string)
	c := indexer.Chunk{
		Text:  text,
		Bytes: len(text),
		Index: payloadInt(meta, "chunk_index"),
		Start: payloadInt(meta, "start"),
		End:   payloadInt(meta, "end"),
	}
	c.ID, _ = meta["chunk_id"].(string)
	c.DocumentID, _ = meta["document_id"].(string)
	c.Source, _ = meta["source"].(string)
	return c
}

func payloadInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
