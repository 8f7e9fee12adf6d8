package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/mvp-joe/chunklink/internal/config"
)

const payloadKey = "payload"

// Chromem is an embedded chromem-go collection, persisted to disk when a path is given.
type Chromem struct {
	db         *chromem.DB
	name       string
	mu         sync.RWMutex
	collection *chromem.Collection
}

// NewChromem opens (or creates) a chromem-go database at path. An empty path keeps
// everything in memory.
func NewChromem(path, collection string) (*Chromem, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db at %s: %w", path, err)
		}
	}
	return &Chromem{db: db, name: collection}, nil
}

// Provision applies the policy. chromem-go does not record the vector size of a
// collection, so a dimension conflict only surfaces at query time.
func (c *Chromem) Provision(ctx context.Context, policy string, dimensions int) error {
	if err := config.ValidateProvisioning(policy); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if policy == config.ProvisionRecreate {
		if err := c.db.DeleteCollection(c.name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", c.name, err)
		}
	}

	collection, err := c.db.GetOrCreateCollection(c.name, map[string]string{
		"dimensions": strconv.Itoa(dimensions),
		"distance":   "cosine",
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.name, err)
	}
	c.collection = collection
	return nil
}

// Upsert adds documents keyed by point id; existing ids are overwritten.
func (c *Chromem) Upsert(ctx context.Context, points []Point) error {
	collection, err := c.current()
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload of point %d: %w", p.ID, err)
		}
		content, _ := p.Payload["code"].(string)
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(p.ID),
			Content:   content,
			Embedding: p.Vector,
			Metadata:  map[string]string{payloadKey: string(payload)},
		})
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search returns the nearest documents by cosine similarity.
func (c *Chromem) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	collection, err := c.current()
	if err != nil {
		return nil, err
	}

	// chromem-go rejects nResults larger than the collection
	n := min(limit, collection.Count())
	if n <= 0 {
		return []Hit{}, nil
	}

	results, err := collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", c.name, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q: %w", r.ID, err)
		}
		var payload map[string]any
		if raw, ok := r.Metadata[payloadKey]; ok {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return nil, fmt.Errorf("failed to decode payload of %s: %w", r.ID, err)
			}
		}
		hits = append(hits, Hit{ID: id, Score: r.Similarity, Payload: payload})
	}
	return hits, nil
}

// Close is a no-op; persistent chromem-go databases write through on every add.
func (c *Chromem) Close() error {
	return nil
}

// current returns the provisioned collection, opening an existing one on first use
// (the tools server searches without provisioning).
func (c *Chromem) current() (*chromem.Collection, error) {
	c.mu.RLock()
	collection := c.collection
	c.mu.RUnlock()
	if collection != nil {
		return collection, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collection == nil {
		c.collection = c.db.GetCollection(c.name, nil)
	}
	if c.collection == nil {
		return nil, fmt.Errorf("collection %s does not exist", c.name)
	}
	return c.collection, nil
}
