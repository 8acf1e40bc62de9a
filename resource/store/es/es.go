package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/mycok/halreslib/resource"
)

var _ resource.Store = (*ElasticsearchStore)(nil)

// Size of each page requested while listing URLs.
const batchSize = 500

// How long elasticsearch keeps a scroll context alive between two pages.
const scrollKeepAlive = time.Minute

// The name of the elasticsearch index to use.
const indexName = "resources"

// Every resource field is stored verbatim, none of them is analyzed apart
// from the title and descriptions.
var esMappings = `
{
  "mappings" : {
    "properties": {
      "id": {"type": "keyword"},
      "url": {"type": "keyword"},
      "scheme": {"type": "keyword"},
      "host": {"type": "keyword"},
      "path": {"type": "keyword"},
      "live_status": {"type": "keyword"},
      "title": {"type": "text"},
      "auto_descr": {"type": "text"},
      "man_descr": {"type": "text"},
      "crea_user": {"type": "keyword"},
      "crea_time": {"type": "keyword"},
      "modi_user": {"type": "keyword"},
      "modi_time": {"type": "keyword"}
    }
  }
}`

type esSearchRes struct {
	ScrollID string          `json:"_scroll_id"`
	Hits     esSearchResHits `json:"hits"`
}

type esSearchResHits struct {
	HitList []esHitWrapper `json:"hits"`
}

type esHitWrapper struct {
	DocSource resource.Resource `json:"_source"`
}

type esBulkRes struct {
	Errors bool                          `json:"errors"`
	Items  []map[string]esBulkItemResult `json:"items"`
}

type esBulkItemResult struct {
	Status int      `json:"status"`
	Error  *esError `json:"error,omitempty"`
}

type esErrorRes struct {
	Error esError `json:"error"`
}

type esError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e esError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// ElasticsearchStore is a resource store that keeps one elasticsearch
// document per inserted resource. Document IDs are generated by
// elasticsearch so that resources sharing an ID are kept apart.
type ElasticsearchStore struct {
	client  *elasticsearch.Client
	refresh string
}

// NewElasticsearchStore connects to the given nodes and creates the
// resources index when missing. When shouldSyncUpdates is set, inserts wait
// for the index to refresh so that they are immediately visible to reads.
func NewElasticsearchStore(
	esNodes []string, shouldSyncUpdates bool,
) (*ElasticsearchStore, error) {

	c, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: esNodes,
	})
	if err != nil {
		return nil, err
	}

	if err = initIndex(c); err != nil {
		return nil, err
	}

	refresh := "false"
	if shouldSyncUpdates {
		refresh = "wait_for"
	}

	return &ElasticsearchStore{client: c, refresh: refresh}, nil
}

// Close is a no-op; the elasticsearch client holds no long-lived resources.
func (s *ElasticsearchStore) Close() error {
	return nil
}

// Insert indexes resources with a single bulk request.
func (s *ElasticsearchStore) Insert(ctx context.Context, resources []*resource.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	body, err := makeBulkBody(resources)
	if err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}

	res, err := s.client.Bulk(
		body,
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(indexName),
		s.client.Bulk.WithRefresh(s.refresh),
	)
	if err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}

	var bulkRes esBulkRes
	if err = unmarshalResponse(res, &bulkRes); err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}

	if err = firstBulkError(bulkRes); err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}

	return nil
}

// ListURLs returns the URL of every stored resource. The index is read
// through a scroll context, so listing is not bounded by the index
// max_result_window setting.
func (s *ElasticsearchStore) ListURLs(ctx context.Context) ([]string, error) {
	query := map[string]interface{}{
		"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
		"_source": []string{"url"},
		"sort":    []string{"_doc"},
		"size":    batchSize,
	}

	page, err := performSearch(ctx, s.client, query)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}

	scrollID := page.ScrollID
	defer func() { s.clearScroll(scrollID) }()

	urls := []string{}
	for len(page.Hits.HitList) > 0 {
		for _, hit := range page.Hits.HitList {
			urls = append(urls, hit.DocSource.URL)
		}

		if page, err = s.scroll(ctx, scrollID); err != nil {
			return nil, fmt.Errorf("list urls: %w", err)
		}

		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
	}

	return urls, nil
}

func (s *ElasticsearchStore) scroll(ctx context.Context, scrollID string) (*esSearchRes, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]string{"scroll_id": scrollID}); err != nil {
		return nil, err
	}

	res, err := s.client.Scroll(
		s.client.Scroll.WithContext(ctx),
		s.client.Scroll.WithBody(&buf),
		s.client.Scroll.WithScroll(scrollKeepAlive),
	)
	if err != nil {
		return nil, err
	}

	var esRes esSearchRes
	if err = unmarshalResponse(res, &esRes); err != nil {
		return nil, err
	}

	return &esRes, nil
}

// clearScroll releases the scroll context early. Failures are ignored since
// elasticsearch drops the context once scrollKeepAlive elapses.
func (s *ElasticsearchStore) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}

	res, err := s.client.ClearScroll(s.client.ClearScroll.WithScrollID(scrollID))
	if err != nil {
		return
	}

	_ = res.Body.Close()
}

func makeBulkBody(resources []*resource.Resource) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, r := range resources {
		if err := enc.Encode(map[string]interface{}{"index": map[string]interface{}{}}); err != nil {
			return nil, err
		}

		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}

	return &buf, nil
}

func firstBulkError(res esBulkRes) error {
	if !res.Errors {
		return nil
	}

	for _, item := range res.Items {
		for _, result := range item {
			if result.Error != nil {
				return *result.Error
			}
		}
	}

	return fmt.Errorf("bulk request reported errors")
}

func performSearch(
	ctx context.Context, client *elasticsearch.Client, query map[string]interface{},
) (*esSearchRes, error) {

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(indexName),
		client.Search.WithBody(&buf),
		client.Search.WithScroll(scrollKeepAlive),
	)
	if err != nil {
		return nil, err
	}

	var esRes esSearchRes
	if err = unmarshalResponse(res, &esRes); err != nil {
		return nil, err
	}

	return &esRes, nil
}

func initIndex(client *elasticsearch.Client) error {
	res, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(esMappings)),
	)
	if err != nil {
		return fmt.Errorf("failed to create ES index: %w", err)
	}

	if res.IsError() {
		err = unmarshalResponse(res, nil)

		esErr, ok := err.(esError)
		if ok && esErr.Type == "resource_already_exists_exception" {
			return nil
		}

		return fmt.Errorf("failed to create ES index: %w", err)
	}

	return res.Body.Close()
}

func unmarshalResponse(res *esapi.Response, into interface{}) error {
	defer res.Body.Close()

	if res.IsError() {
		var errRes esErrorRes
		if err := json.NewDecoder(res.Body).Decode(&errRes); err != nil {
			return err
		}

		return errRes.Error
	}

	return json.NewDecoder(res.Body).Decode(into)
}
