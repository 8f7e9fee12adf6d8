package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// KeywordHit is one keyword match, identified by chunk position.
type KeywordHit struct {
	Position int
	Score    float64
}

// KeywordIndex is an in-memory bleve index over chunk names, code, selectors and tests.
type KeywordIndex struct {
	index bleve.Index
}

// NewKeywordIndex indexes every chunk of the set.
func NewKeywordIndex(ctx context.Context, chunks *ChunkSet) (*KeywordIndex, error) {
	index, err := bleve.NewMemOnly(buildKeywordMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	if err := indexChunkSet(ctx, index, chunks); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	return &KeywordIndex{index: index}, nil
}

func buildKeywordMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = false
	text.IncludeTermVectors = true

	// exact tokens for kinds and selectors
	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", text)
	docMapping.AddFieldMappingsAt("code", text)
	docMapping.AddFieldMappingsAt("file_path", text)
	docMapping.AddFieldMappingsAt("tests", text)
	docMapping.AddFieldMappingsAt("selectors", keyword)
	docMapping.AddFieldMappingsAt("kind", keyword)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func indexChunkSet(ctx context.Context, index bleve.Index, chunks *ChunkSet) error {
	const batchSize = 1000

	batch := index.NewBatch()
	for i := 0; i < chunks.Len(); i++ {
		if i%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		c := chunks.At(i)
		tests := append(append([]string{}, c.LinkedTests...), c.ReverseTests...)
		doc := map[string]interface{}{
			"name":      c.Name,
			"code":      c.Code,
			"file_path": c.FilePath,
			"tests":     tests,
			"selectors": c.Selectors,
			"kind":      string(c.Kind),
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", c.ID, err)
		}

		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}
	return nil
}

var keywordFields = []struct {
	name  string
	boost float64
	exact bool
}{
	{"name", 3, false},
	{"selectors", 2, true},
	{"tests", 2, false},
	{"file_path", 1, false},
	{"code", 1, false},
}

// Search matches the query text against every indexed field. Names weigh more than code.
func (k *KeywordIndex) Search(ctx context.Context, text string, limit int) ([]KeywordHit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []KeywordHit{}, nil
	}

	var fields []query.Query
	for _, f := range keywordFields {
		if f.exact {
			tq := bleve.NewTermQuery(text)
			tq.SetField(f.name)
			tq.SetBoost(f.boost)
			fields = append(fields, tq)
			continue
		}
		mq := bleve.NewMatchQuery(text)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		fields = append(fields, mq)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(fields...), limit, 0, false)
	result, err := k.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]KeywordHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		pos, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, KeywordHit{Position: pos, Score: h.Score})
	}
	return hits, nil
}

// Close releases the index.
func (k *KeywordIndex) Close() error {
	return k.index.Close()
}
