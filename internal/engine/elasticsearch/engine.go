package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/domain"
)

// maxResults bounds a single search response. The catalog is small enough
// that every match fits in one page.
const maxResults = 10000

// Engine is an Elasticsearch-backed SearchEngine.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// document is the indexed form of a brand.
type document struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Position    int               `json:"position"`
	Categories  []domain.Category `json:"categories"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Brand       domain.Brand      `json:"brand"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New connects to Elasticsearch at esURL and makes sure the index exists.
// If indexName is empty, DefaultIndexName is used.
func New(ctx context.Context, esURL, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	e := &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}
	if err := e.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return e, nil
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (e *Engine) ensureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		e.logger.Debug("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// Index drops the current index, recreates it and bulk-loads brands with
// their collection position.
func (e *Engine) Index(ctx context.Context, brands []domain.Brand) error {
	if err := e.deleteIndex(ctx); err != nil {
		return err
	}
	if err := e.ensureIndex(ctx); err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	if len(brands) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, b := range brands {
		action := map[string]any{
			"index": map[string]any{"_index": e.indexName, "_id": b.ID},
		}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		doc := document{
			ID:          b.ID,
			Slug:        b.Slug,
			Position:    i,
			Categories:  b.Categories,
			Name:        b.Name,
			Description: b.Description,
			Brand:       b,
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("elasticsearch bulk index", res.Status(), res.Body)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}

	e.logger.Info("bulk indexed brands", "index", e.indexName, "count", len(brands))
	return nil
}

// Search runs q against the index, returning hits in collection order.
func (e *Engine) Search(ctx context.Context, q catalog.Query) ([]domain.Brand, error) {
	data, err := json.Marshal(buildSearchQuery(q))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("elasticsearch search", res.Status(), res.Body)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	brands := make([]domain.Brand, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		brands = append(brands, hit.Source.Brand.WithDefaults())
	}
	return brands, nil
}

// DeleteIndex removes the index. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context) error {
	return e.deleteIndex(ctx)
}

func (e *Engine) deleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete index", res.Status(), res.Body)
	}
	return nil
}

// buildSearchQuery mirrors catalog.Query.Matches: a terms filter on the
// selected categories and a case-insensitive substring match on name or
// description, sorted by collection position.
func buildSearchQuery(q catalog.Query) map[string]any {
	var filters []any
	if len(q.Categories) > 0 {
		filters = append(filters, map[string]any{
			"terms": map[string]any{"categories": q.Categories},
		})
	}
	if text := strings.ToLower(q.Text); text != "" {
		pattern := "*" + escapeWildcard(text) + "*"
		filters = append(filters, map[string]any{
			"bool": map[string]any{
				"should": []any{
					wildcard("name", pattern),
					wildcard("description", pattern),
				},
				"minimum_should_match": 1,
			},
		})
	}

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	} else {
		boolQuery["must"] = []any{map[string]any{"match_all": map[string]any{}}}
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"sort":  []any{map[string]any{"position": "asc"}},
		"size":  maxResults,
	}
}

func wildcard(field, pattern string) map[string]any {
	return map[string]any{
		"wildcard": map[string]any{
			field: map[string]any{"value": pattern, "case_insensitive": true},
		},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string { return wildcardEscaper.Replace(s) }

func responseError(op, status string, body io.Reader) error {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, status)
}
