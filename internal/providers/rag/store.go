package rag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "notes"

// Retrieved is one hit from a similarity search.
type Retrieved struct {
	DocID      string
	Text       string
	Similarity float32
}

// Store keeps note chunks in an on-disk chromem collection. Chunk IDs are
// generated UUIDs; the originating document identifier travels in metadata.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	chunker    ChunkerConfig
}

func NewStore(path string, embedder Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, ToChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: col,
		chunker:    NoteChunkerConfig(),
	}, nil
}

// AddDocument chunks text and stores every chunk under docID.
func (s *Store) AddDocument(ctx context.Context, docID, text string) error {
	chunks := ChunkText(text, s.chunker)
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:      uuid.NewString(),
			Content: c.Text,
			Metadata: map[string]string{
				"doc_id": docID,
				"chunk":  strconv.Itoa(c.Index),
			},
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Retrieve returns up to limit chunks most similar to query.
func (s *Store) Retrieve(ctx context.Context, query string, limit int) ([]Retrieved, error) {
	if limit <= 0 {
		limit = 5
	}

	// chromem requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	hits := make([]Retrieved, len(results))
	for i, r := range results {
		hits[i] = Retrieved{
			DocID:      r.Metadata["doc_id"],
			Text:       r.Content,
			Similarity: r.Similarity,
		}
	}
	return hits, nil
}

func (s *Store) Count() int {
	return s.collection.Count()
}
