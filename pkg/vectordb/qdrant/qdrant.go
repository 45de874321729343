package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/vectordb"

	"github.com/google/uuid"
)

const recordIDKey = "record_id"

type Config struct {
	URL      string
	APIKey   string
	Distance vectordb.Distance
	Timeout  time.Duration
}

// Index is a REST client for a Qdrant server.
type Index struct {
	url      string
	apiKey   string
	distance vectordb.Distance
	client   *http.Client
}

var _ vectordb.VectorIndex = (*Index)(nil)

func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	distance := cfg.Distance
	if distance == "" {
		distance = vectordb.DistanceCosine
	}
	return &Index{
		url:      strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		distance: distance,
		client:   &http.Client{Timeout: timeout},
	}
}

func distanceName(d vectordb.Distance) string {
	if d == vectordb.DistanceDot {
		return "Dot"
	}
	return "Cosine"
}

func parseDistanceName(s string) vectordb.Distance {
	if strings.EqualFold(s, "Dot") {
		return vectordb.DistanceDot
	}
	return vectordb.DistanceCosine
}

// pointID maps a record id onto the uuid space Qdrant accepts.
func pointID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func (s *Index) collectionURL(name string, suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, url.PathEscape(name), suffix)
}

type statusError struct {
	method string
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.url, e.status, e.body)
}

func (s *Index) do(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return apperror.FromRemote(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{method: method, url: target, status: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*statusError); ok {
		return fmt.Errorf("%w: %v", apperror.ErrStoreUnavailable, err)
	}
	return apperror.FromStore(err)
}

func (s *Index) CollectionExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, http.MethodGet, s.collectionURL(name, ""), nil, nil)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, wrap(err)
	}
	return true, nil
}

func (s *Index) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	var resp struct {
		Result struct {
			PointsCount *int64 `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(name, ""), nil, &resp)
	if isNotFound(err) {
		return nil, vectordb.CollectionNotFound(name)
	}
	if err != nil {
		return nil, wrap(err)
	}

	info := &vectordb.CollectionInfo{
		Name:     name,
		Size:     resp.Result.Config.Params.Vectors.Size,
		Distance: parseDistanceName(resp.Result.Config.Params.Vectors.Distance),
	}
	if resp.Result.PointsCount != nil {
		info.PointsCount = *resp.Result.PointsCount
	}
	return info, nil
}

func (s *Index) ListCollections(ctx context.Context) ([]string, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.url+"/collections", nil, &resp); err != nil {
		return nil, wrap(err)
	}
	names := make([]string, len(resp.Result.Collections))
	for i, c := range resp.Result.Collections {
		names[i] = c.Name
	}
	return names, nil
}

func (s *Index) CreateCollection(ctx context.Context, name string, size int) error {
	if size <= 0 {
		return apperror.NewValidationError("embedding_size", "must be greater than zero")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     size,
			"distance": distanceName(s.distance),
		},
	}
	return wrap(s.do(ctx, http.MethodPut, s.collectionURL(name, ""), body, nil))
}

func (s *Index) DeleteCollection(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, s.collectionURL(name, ""), nil, nil)
	if isNotFound(err) {
		return nil
	}
	return wrap(err)
}

func (s *Index) Upsert(ctx context.Context, name string, records []vectordb.Record) error {
	if len(records) == 0 {
		return nil
	}
	info, err := s.GetCollectionInfo(ctx, name)
	if err != nil {
		return err
	}
	if err := vectordb.CheckDimensions(info.Size, records); err != nil {
		return err
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     pointID(r.ID),
			"vector": r.Vector,
			"payload": map[string]any{
				recordIDKey: r.ID,
				"text":      r.Text,
				"metadata":  r.Metadata,
			},
		}
	}
	err = s.do(ctx, http.MethodPut, s.collectionURL(name, "/points?wait=true"), map[string]any{"points": points}, nil)
	if isNotFound(err) {
		return vectordb.CollectionNotFound(name)
	}
	return wrap(err)
}

func (s *Index) Search(ctx context.Context, name string, vector []float32, limit int) ([]vectordb.SearchHit, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionURL(name, "/points/search"), req, &resp)
	if isNotFound(err) {
		return nil, vectordb.CollectionNotFound(name)
	}
	if se, ok := err.(*statusError); ok && se.status == http.StatusBadRequest && strings.Contains(se.body, "dimension") {
		return nil, fmt.Errorf("%w: %s", apperror.ErrDimensionMismatch, se.body)
	}
	if err != nil {
		return nil, wrap(err)
	}

	hits := make([]vectordb.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := vectordb.SearchHit{Score: r.Score}
		if v, ok := r.Payload[recordIDKey].(string); ok {
			hit.ID = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := r.Payload["metadata"].(map[string]any); ok {
			hit.Metadata = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Index) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
