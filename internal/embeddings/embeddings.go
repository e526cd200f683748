// Package embeddings turns variant descriptions into vectors through a local
// Ollama embedding model, behind a bounded worker pool with a cache.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	defaultModel  = "nomic-embed-text"
	queueCapacity = 100
)

// Result of one embedding request.
type Result struct {
	Content   string
	Embedding []float32
	Error     error
}

// work is a unit of embedding work.
type work struct {
	content string
	result  chan<- Result
}

// Service manages embedding generation and caching.
type Service struct {
	baseURL    string
	model      string
	client     *http.Client
	numWorkers int
	workQueue  chan work
	cache      sync.Map
	wg         sync.WaitGroup
}

// NewService creates an embedding service backed by the Ollama API at
// baseURL with the given number of workers.
func NewService(baseURL, model string, numWorkers int) *Service {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if model == "" {
		model = defaultModel
	}

	s := &Service{
		baseURL:    baseURL,
		model:      model,
		client:     &http.Client{Timeout: 30 * time.Second},
		numWorkers: numWorkers,
		workQueue:  make(chan work, queueCapacity),
	}
	s.startWorkers()
	return s
}

func (s *Service) startWorkers() {
	for i := 0; i < s.numWorkers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for w := range s.workQueue {
				if cached, ok := s.cache.Load(w.content); ok {
					if embedding, validCache := cached.([]float32); validCache {
						w.result <- Result{Content: w.content, Embedding: embedding}
						continue
					}
				}

				embedding, err := s.generateEmbedding(context.Background(), w.content)
				if err == nil {
					s.cache.Store(w.content, embedding)
				}

				w.result <- Result{
					Content:   w.content,
					Embedding: embedding,
					Error:     err,
				}
			}
		}()
	}
}

// GetEmbedding requests an embedding asynchronously.
func (s *Service) GetEmbedding(content string) <-chan Result {
	resultChan := make(chan Result, 1)

	select {
	case s.workQueue <- work{content: content, result: resultChan}:
	default:
		resultChan <- Result{
			Content: content,
			Error:   fmt.Errorf("embedding queue is full, try again later"),
		}
		close(resultChan)
	}

	return resultChan
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (s *Service) generateEmbedding(ctx context.Context, content string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: s.model, Prompt: content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request returned status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	return parsed.Embedding, nil
}

// Close shuts down the service and waits for all workers to finish.
func (s *Service) Close() {
	if s.workQueue != nil {
		close(s.workQueue)
	}
	s.wg.Wait()
}
