package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/vectorDB"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const textPreviewChars = 200

// pointNamespace keeps point ids stable for a (document, chunk index) pair across reruns.
var pointNamespace = uuid.MustParse("6f1c1f0e-8a59-4d8e-9d3b-1b8f1f6c2a10")

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
	logger     *logger_i.Logger
}

var _ vectorDB.Index = (*ClientHolder)(nil)

// NewClient returns nil, nil when no host is configured. The gRPC connection is lazy, so an
// unreachable server only shows up in HealthCheck.
func NewClient(ctx context.Context, cfg config.QdrantConfig) (*ClientHolder, error) {
	if cfg.Host == "" {
		return nil, nil
	}
	logger := logger_i.NewLogger("Qdrant")

	port := cfg.Port
	if port == 0 {
		port = config.QdrantGrpcPort
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		PoolSize:               uint(config.QdrantPoolSize),
		KeepAliveTime:          int(config.QdrantKeepAliveTimeout.Seconds()),
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = config.QdrantCollection
	}
	holder := &ClientHolder{QObj: client, collection: collection, logger: logger}
	go closeQdrant(ctx, holder)
	return holder, nil
}

func closeQdrant(ctx context.Context, db *ClientHolder) {
	<-ctx.Done()
	db.logger.Info("Shutting down Qdrant")
	if err := db.QObj.Close(); err != nil {
		db.logger.Error("could not close Qdrant", "error", err)
	}
}

func (db *ClientHolder) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.QdrantHealthTimeout)
	defer cancel()
	_, err := db.QObj.HealthCheck(ctx)
	return err
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, dimension uint64) error {
	if db.collection == "" {
		return errors.New("empty collection name")
	}
	if dimension == 0 {
		return errors.New("vector dimension must be positive")
	}

	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	db.logger.Info("creating collection", "collection", db.collection, "dimension", dimension)
	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) ReplaceDocumentPoints(ctx context.Context, doc docModel.Document, chunks []docModel.Chunk, vectors [][]float32) ([]string, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	// a shorter rerun must not leave the old tail behind
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: db.collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchInt("document_id", doc.Id)},
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant delete of document %d failed: %w", doc.Id, err)
	}

	ids := make([]string, len(chunks))
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		ids[i] = PointID(doc.Id, chunk.Index)
		payload, err := qdrant.TryValueMap(map[string]any{
			"document_id":  doc.Id,
			"chunk_id":     chunk.Id,
			"chunk_index":  chunk.Index,
			"doc_name":     doc.OriginalFilename,
			"text_preview": preview(chunk.Text),
		})
		if err != nil {
			return nil, fmt.Errorf("chunk %d payload: %w", chunk.Index, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(ids[i]),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		})
	}
	if len(points) == 0 {
		return ids, nil
	}

	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return ids, nil
}

// PointID derives the point id of a chunk from its document and position.
func PointID(documentId int64, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%d/%d", documentId, chunkIndex))).String()
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= textPreviewChars {
		return text
	}
	return string(runes[:textPreviewChars])
}
