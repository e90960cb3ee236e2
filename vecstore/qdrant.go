package vecstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantConfig configures the remote qdrant adapter.
type QdrantConfig struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	APIKey string `json:"api_key" yaml:"api_key"`
	UseTLS bool   `json:"use_tls" yaml:"use_tls"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *QdrantConfig) defaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Qdrant implements Store against a qdrant server.
//
// Qdrant point ids must be UUIDs or integers, so chunk ids are mapped to
// deterministic UUIDv5 values; the original id travels in the payload and is
// restored on read.
type Qdrant struct {
	client *qdrant.Client
	logger *slog.Logger
}

const (
	payloadIDKey   = "_id"
	payloadTextKey = "_text"
)

// NewQdrant connects to the qdrant server.
func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	cfg.defaults()

	opts := []grpc.DialOption{}
	if !cfg.UseTLS {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
		GrpcOptions:            opts,
	})
	if err != nil {
		return nil, fmt.Errorf("vecstore: qdrant client: %w", err)
	}

	return &Qdrant{client: client, logger: cfg.Logger}, nil
}

// Close releases the underlying gRPC connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

func (q *Qdrant) EnsureCollection(ctx context.Context, name string, dim int) error {
	info, err := q.client.GetCollectionInfo(ctx, name)
	if err == nil && info != nil {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vecstore: create qdrant collection %s: %w", name, err)
	}
	return nil
}

func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	info, err := q.client.GetCollectionInfo(ctx, name)
	if err != nil || info == nil {
		return ErrCollectionNotFound
	}
	if err := q.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("vecstore: delete qdrant collection %s: %w", name, err)
	}
	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := map[string]any{
			payloadIDKey:   p.ID,
			payloadTextKey: p.Text,
		}
		for k, v := range p.Payload {
			payload[k] = v
		}
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointUUID(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         structs,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("vecstore: qdrant upsert to %s: %w", collection, err)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, collection string, vector []float32, limit int) ([]Scored, error) {
	if limit <= 0 {
		limit = 5
	}
	lim := uint64(limit)

	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vecstore: qdrant query %s: %w", collection, err)
	}

	out := make([]Scored, 0, len(hits))
	for _, h := range hits {
		p := pointFromPayload(h.GetPayload())
		out = append(out, Scored{Point: p, Score: float64(h.GetScore())})
	}
	return out, nil
}

func (q *Qdrant) Get(ctx context.Context, collection string, ids []string) ([]Point, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(pointUUID(id))
	}

	retrieved, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vecstore: qdrant get from %s: %w", collection, err)
	}

	byID := make(map[string]Point, len(retrieved))
	for _, r := range retrieved {
		p := pointFromPayload(r.GetPayload())
		byID[p.ID] = p
	}

	out := make([]Point, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (q *Qdrant) Count(ctx context.Context, collection string) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{CollectionName: collection})
	if err != nil {
		return 0, fmt.Errorf("vecstore: qdrant count %s: %w", collection, err)
	}
	return int(n), nil
}

// pointUUID maps a chunk id onto the UUID space qdrant requires.
func pointUUID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func pointFromPayload(payload map[string]*qdrant.Value) Point {
	p := Point{Payload: make(map[string]string)}
	for k, v := range payload {
		s := v.GetStringValue()
		switch k {
		case payloadIDKey:
			p.ID = s
		case payloadTextKey:
			p.Text = s
		default:
			p.Payload[k] = s
		}
	}
	return p
}
