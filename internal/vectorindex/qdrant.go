package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/mvp-joe/chunklink/internal/config"
)

// qdrantClient is the part of *qdrant.Client the backend uses.
type qdrantClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	DeleteCollection(ctx context.Context, collectionName string) error
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Qdrant stores points in a Qdrant collection over gRPC.
type Qdrant struct {
	client     qdrantClient
	collection string
	timeout    time.Duration
}

// NewQdrant creates a client for the configured collection. The connection is
// established lazily on the first call.
func NewQdrant(cfg config.VectorIndexConfig) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,

		// the server version is not probed here; the first real call reports errors
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return newQdrant(client, cfg.Collection, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
}

func newQdrant(client qdrantClient, collection string, timeout time.Duration) *Qdrant {
	return &Qdrant{client: client, collection: collection, timeout: timeout}
}

// callContext bounds a single call by the configured timeout; zero leaves ctx as is.
func (q *Qdrant) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, q.timeout)
}

// Provision applies the policy to the collection.
func (q *Qdrant) Provision(ctx context.Context, policy string, dimensions int) error {
	if err := config.ValidateProvisioning(policy); err != nil {
		return err
	}

	ctx, cancel := q.callContext(ctx)
	defer cancel()

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", q.collection, err)
	}

	if exists {
		if policy == config.ProvisionCreateIfAbsent {
			size, err := q.collectionSize(ctx)
			if err != nil {
				return err
			}
			if size != dimensions {
				return fmt.Errorf("%w: %s has size %d, embeddings have %d", ErrDimensionConflict, q.collection, size, dimensions)
			}
			return nil
		}
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", q.collection, err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", q.collection, err)
	}
	return nil
}

func (q *Qdrant) collectionSize(ctx context.Context) (int, error) {
	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection %s: %w", q.collection, err)
	}
	return int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()), nil
}

// Upsert writes points and waits for them to be applied.
func (q *Qdrant) Upsert(ctx context.Context, points []Point) error {
	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload, err := toQdrantPayload(p.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload of point %d: %w", p.ID, err)
		}
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		}
	}

	ctx, cancel := q.callContext(ctx)
	defer cancel()

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), q.collection, err)
	}
	return nil
}

// Search queries the collection by vector.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	ctx, cancel := q.callContext(ctx)
	defer cancel()

	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", q.collection, err)
	}

	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		payload := make(map[string]any, len(s.GetPayload()))
		for k, v := range s.GetPayload() {
			payload[k] = fromQdrantValue(v)
		}
		hits = append(hits, Hit{ID: int(s.GetId().GetNum()), Score: s.GetScore(), Payload: payload})
	}
	return hits, nil
}

// Close releases the gRPC connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

// toQdrantPayload normalizes the payload through JSON so that only the value kinds
// Qdrant understands (strings, numbers, bools, lists, maps) reach the converter.
func toQdrantPayload(payload map[string]any) (map[string]*qdrant.Value, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	return qdrant.TryValueMap(plain)
}

func fromQdrantValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return float64(kind.IntegerValue)
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		list := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			list = append(list, fromQdrantValue(item))
		}
		return list
	case *qdrant.Value_StructValue:
		fields := make(map[string]any, len(kind.StructValue.GetFields()))
		for k, item := range kind.StructValue.GetFields() {
			fields[k] = fromQdrantValue(item)
		}
		return fields
	default:
		return nil
	}
}
