// Package search maintains the denormalized category index that serves
// every filtered listing query. Listings never touch the system of record;
// they see the index as of its last successful update.
package search

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// CategoryDoc is the indexed, query-optimized copy of a category.
type CategoryDoc struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	OwnerID     float64 `json:"owner_id"`
}

// CategoryHit is one listing result: the document id plus stored fields.
type CategoryHit struct {
	ID uint64
	CategoryDoc
}

// Filter narrows a listing query. Zero values mean "no constraint".
type Filter struct {
	Search  string
	Status  string
	OwnerID *uint64
	Limit   int
	Offset  int
}

const defaultListLimit = 20

// CategoryIndex wraps a bleve index over CategoryDoc.
type CategoryIndex struct {
	idx bleve.Index
}

func indexMapping() *mapping.IndexMappingImpl {
	docMap := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	docMap.AddFieldMappingsAt("name", textField)
	docMap.AddFieldMappingsAt("description", textField)

	// status is matched exactly, never tokenized
	statusField := bleve.NewTextFieldMapping()
	statusField.Analyzer = keyword.Name
	docMap.AddFieldMappingsAt("status", statusField)

	ownerField := bleve.NewNumericFieldMapping()
	docMap.AddFieldMappingsAt("owner_id", ownerField)

	mapping := bleve.NewIndexMapping()
	mapping.DefaultMapping = docMap
	return mapping
}

// Open opens (or creates) the on-disk index at path.
func Open(path string) (*CategoryIndex, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist || os.IsNotExist(err) {
		idx, err = bleve.New(path, indexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open category index: %w", err)
	}
	return &CategoryIndex{idx: idx}, nil
}

// NewMemOnly builds an in-memory index, used by tests.
func NewMemOnly() (*CategoryIndex, error) {
	idx, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return nil, fmt.Errorf("open in-memory category index: %w", err)
	}
	return &CategoryIndex{idx: idx}, nil
}

func (i *CategoryIndex) Close() error { return i.idx.Close() }

// Index writes the document for a category, replacing any previous copy.
func (i *CategoryIndex) Index(id uint64, doc CategoryDoc) error {
	return i.idx.Index(docID(id), doc)
}

// Update re-indexes the merged post-update document. Callers hold the full
// current entity when they diff an update, so a partial update is a full
// re-index of the merged snapshot.
func (i *CategoryIndex) Update(id uint64, doc CategoryDoc) error {
	return i.idx.Index(docID(id), doc)
}

func (i *CategoryIndex) Delete(id uint64) error {
	return i.idx.Delete(docID(id))
}

// Search runs a filtered, paginated listing query and returns hits in
// stable id order with their stored fields.
func (i *CategoryIndex) Search(ctx context.Context, f Filter) ([]CategoryHit, uint64, error) {
	var must []query.Query
	if f.Search != "" {
		name := bleve.NewMatchQuery(f.Search)
		name.SetField("name")
		desc := bleve.NewMatchQuery(f.Search)
		desc.SetField("description")
		must = append(must, bleve.NewDisjunctionQuery(name, desc))
	}
	if f.Status != "" {
		status := bleve.NewTermQuery(f.Status)
		status.SetField("status")
		must = append(must, status)
	}
	if f.OwnerID != nil {
		owner := float64(*f.OwnerID)
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(&owner, &owner, &inclusive, &inclusive)
		rq.SetField("owner_id")
		must = append(must, rq)
	}

	var q query.Query
	switch len(must) {
	case 0:
		q = bleve.NewMatchAllQuery()
	case 1:
		q = must[0]
	default:
		q = bleve.NewConjunctionQuery(must...)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	req := bleve.NewSearchRequestOptions(q, limit, f.Offset, false)
	req.Fields = []string{"name", "description", "status", "owner_id"}
	req.SortBy([]string{"_id"})

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("category search: %w", err)
	}

	hits := make([]CategoryHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		hit := CategoryHit{ID: id}
		hit.Name, _ = h.Fields["name"].(string)
		hit.Description, _ = h.Fields["description"].(string)
		hit.Status, _ = h.Fields["status"].(string)
		hit.OwnerID, _ = h.Fields["owner_id"].(float64)
		hits = append(hits, hit)
	}
	return hits, res.Total, nil
}

func docID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
