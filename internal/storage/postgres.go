package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/bdougie/shotcurator/internal/embeddings"
	"github.com/bdougie/shotcurator/internal/models"
)

// PostgresConfig holds connection details for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func (c PostgresConfig) connString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// PostgresStore persists runs and discovered variants, with vector
// embeddings of variant descriptions for similarity search across runs.
type PostgresStore struct {
	pool     *pgxpool.Pool
	embedder *embeddings.Service
	logger   *slog.Logger
}

// NewPostgresStore creates a new PostgreSQL store connection.
func NewPostgresStore(ctx context.Context, config PostgresConfig, embedder *embeddings.Service, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, config.connString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, embedder: embedder, logger: logger}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// getOrCreateVideo gets an existing video entry or creates a new one.
func (s *PostgresStore) getOrCreateVideo(ctx context.Context, videoName string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM videos WHERE name = $1",
		videoName).Scan(&id)

	if err == nil {
		return id, nil
	} else if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("error checking for existing video: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		"INSERT INTO videos (name, created_at) VALUES ($1, $2) RETURNING id",
		videoName, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create video entry: %w", err)
	}
	return id, nil
}

// SaveRun stores one curation run with all of its curated frames. Each
// variant's description is embedded so past runs stay searchable by content.
func (s *PostgresStore) SaveRun(ctx context.Context, run Run) error {
	videoID, err := s.getOrCreateVideo(ctx, run.VideoName)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs
		(id, video_id, rating, avg_sharpness, max_sharpness, avg_motion, low_motion_frames, unusable, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, videoID, string(run.Report.Rating),
		run.Report.AvgSharpness, run.Report.MaxSharpness, run.Report.AvgMotion,
		run.Report.LowMotion, run.Unusable, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}

	for _, v := range run.Variants {
		if err := s.saveVariant(ctx, run.ID.String(), v); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) saveVariant(ctx context.Context, runID string, v VariantRow) error {
	description := v.Description
	if description == "" {
		description = fmt.Sprintf("%s %s", v.ProductID, v.AngleID)
	}

	var embedding []float32
	if s.embedder != nil {
		result := <-s.embedder.GetEmbedding(description)
		if result.Error != nil {
			// Keep the row, just without a searchable vector.
			s.logger.Warn("failed to generate embedding", "err", result.Error)
		} else {
			embedding = result.Embedding
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO variants
		(run_id, frame_id, product_id, angle_id, score, description, frame_timestamp, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		runID, v.FrameID, v.ProductID, v.AngleID, v.Score, description,
		v.Timestamp, pgvector.NewVector(embedding), time.Now())
	if err != nil {
		return fmt.Errorf("failed to store variant: %w", err)
	}
	return nil
}

// SearchSimilarVariants finds stored variants whose description embeddings
// are closest to the query.
func (s *PostgresStore) SearchSimilarVariants(ctx context.Context, query string, limit int) ([]models.FrameSearchResult, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedding service configured")
	}
	result := <-s.embedder.GetEmbedding(query)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", result.Error)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT v.frame_id, v.product_id, v.angle_id, v.description,
		1 - (v.embedding <=> $1) AS similarity
		FROM variants v
		ORDER BY v.embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(result.Embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search variants: %w", err)
	}
	defer rows.Close()

	var results []models.FrameSearchResult
	for rows.Next() {
		var r models.FrameSearchResult
		if err := rows.Scan(&r.FrameID, &r.ProductID, &r.AngleID, &r.Description, &r.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search results: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// InitSchema creates the database schema if it doesn't exist.
func InitSchema(ctx context.Context, config PostgresConfig) error {
	conn, err := pgx.Connect(ctx, config.connString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for vector extension: %w", err)
	}
	if !exists {
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			video_id INT NOT NULL REFERENCES videos(id),
			rating TEXT,
			avg_sharpness DOUBLE PRECISION,
			max_sharpness DOUBLE PRECISION,
			avg_motion DOUBLE PRECISION,
			low_motion_frames INT,
			unusable BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS variants (
			id SERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES runs(id),
			frame_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			angle_id TEXT NOT NULL,
			score DOUBLE PRECISION,
			description TEXT,
			frame_timestamp DOUBLE PRECISION,
			embedding vector(768),
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
