package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/pkg/errors"
)

const IndexName = "spare_parts"

const mapping = `{
  "mappings": {
    "properties": {
      "part_number":       {"type": "keyword"},
      "part_name":         {"type": "text"},
      "description":       {"type": "text"},
      "compatible_models": {"type": "text"},
      "category":          {"type": "keyword"},
      "manufacturer":      {"type": "keyword"},
      "availability":      {"type": "keyword"},
      "supplier_name":     {"type": "keyword"},
      "stock_quantity":    {"type": "integer"},
      "selling_price":     {"type": "double"},
      "updated_at":        {"type": "date"}
    }
  }
}`

type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Transport replaces the http transport, used by tests.
	Transport http.RoundTripper
}

// PartIndex keeps spare parts searchable in Elasticsearch.
type PartIndex struct {
	client *elasticsearch.Client
	index  string
}

func New(cfg Config) (*PartIndex, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Transport: cfg.Transport,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elasticsearch client")
	}
	return &PartIndex{client: client, index: IndexName}, nil
}

// Open connects and makes sure the index exists.
func Open(ctx context.Context, cfg Config) (*PartIndex, error) {
	idx, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (p *PartIndex) EnsureIndex(ctx context.Context) error {
	res, err := p.client.Indices.Exists([]string{p.index}, p.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "elasticsearch index check failed")
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = p.client.Indices.Create(p.index,
		p.client.Indices.Create.WithContext(ctx),
		p.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return errors.Wrap(err, "elasticsearch index create failed")
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index create error: %s", res.String())
	}
	logger.Info("elasticsearch index created", "index", p.index)
	return nil
}

type document struct {
	PartNumber       string             `json:"part_number"`
	PartName         string             `json:"part_name"`
	Description      string             `json:"description,omitempty"`
	CompatibleModels string             `json:"compatible_models,omitempty"`
	Category         string             `json:"category,omitempty"`
	Manufacturer     string             `json:"manufacturer,omitempty"`
	Availability     model.Availability `json:"availability"`
	SupplierName     string             `json:"supplier_name,omitempty"`
	StockQuantity    int                `json:"stock_quantity"`
	SellingPrice     *float64           `json:"selling_price,omitempty"`
	UpdatedAt        string             `json:"updated_at,omitempty"`
}

func toDocument(part *model.SparePart) document {
	d := document{
		PartNumber:       part.PartNumber,
		PartName:         part.PartName,
		Description:      part.Description,
		CompatibleModels: part.CompatibleModels,
		Category:         part.Category,
		Manufacturer:     part.Manufacturer,
		Availability:     part.Availability,
		SupplierName:     part.SupplierName,
		StockQuantity:    part.StockQuantity,
		SellingPrice:     part.SellingPrice,
	}
	if !part.UpdatedAt.IsZero() {
		d.UpdatedAt = part.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return d
}

func (p *PartIndex) Index(ctx context.Context, part *model.SparePart) error {
	body, err := json.Marshal(toDocument(part))
	if err != nil {
		return err
	}
	res, err := p.client.Index(p.index, bytes.NewReader(body),
		p.client.Index.WithContext(ctx),
		p.client.Index.WithDocumentID(strconv.FormatInt(part.ID, 10)),
	)
	if err != nil {
		return errors.Wrap(err, "elasticsearch index request failed")
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index error: %s", res.String())
	}
	return nil
}

func (p *PartIndex) Remove(ctx context.Context, id int64) error {
	res, err := p.client.Delete(p.index, strconv.FormatInt(id, 10), p.client.Delete.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "elasticsearch delete request failed")
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch delete error: %s", res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the ids of matching parts ordered by relevance and the
// total number of hits.
func (p *PartIndex) Search(ctx context.Context, f model.SparePartFilter) ([]int64, int64, error) {
	body, err := json.Marshal(buildQuery(f))
	if err != nil {
		return nil, 0, err
	}
	res, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.index),
		p.client.Search.WithBody(bytes.NewReader(body)),
		p.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "elasticsearch search request failed")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("elasticsearch search error: %s", res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, err
	}
	var r searchResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, 0, errors.Wrap(err, "failed to decode search response")
	}

	ids := make([]int64, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			logger.Warn("skipping search hit with foreign id", "id", hit.ID)
			continue
		}
		ids = append(ids, id)
	}
	return ids, r.Hits.Total.Value, nil
}

func buildQuery(f model.SparePartFilter) map[string]any {
	var must []any
	if q := strings.TrimSpace(f.Query); q != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"part_number^3", "part_name^2", "compatible_models", "description"},
				"fuzziness": "AUTO",
			},
		})
	}

	var filter []any
	term := func(field, value string) {
		if value != "" {
			filter = append(filter, map[string]any{"term": map[string]any{field: value}})
		}
	}
	term("category", f.Category)
	term("manufacturer", f.Manufacturer)
	term("availability", string(f.Availability))
	term("supplier_name", f.SupplierName)

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	size := f.Limit
	if size <= 0 || size > 100 {
		size = 20
	}
	from := f.Offset
	if from < 0 {
		from = 0
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  from,
		"size":  size,
	}
}
