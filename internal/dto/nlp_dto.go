package dto

import "rag-pipeline-be/pkg/llm"

type AnswerState string

const (
	AnswerStateAnswered AnswerState = "ANSWERED"
	AnswerStateNoMatch  AnswerState = "NO_MATCH"
)

type IndexPushRequest struct {
	DoReset bool `json:"do_reset"`
	Async   bool `json:"async"`
}

// IndexProjectMessage is the reindex job payload on the queue and the event bus.
type IndexProjectMessage struct {
	ProjectId string `json:"project_id"`
	DoReset   bool   `json:"do_reset"`
}

type IndexResult struct {
	ProjectId   string `json:"project_id"`
	Collection  string `json:"collection"`
	Created     bool   `json:"created"`
	TotalChunks int    `json:"total_chunks"`
	Indexed     int    `json:"inserted_items_count"`
}

type CollectionInfoResponse struct {
	ProjectId   string `json:"project_id"`
	Collection  string `json:"collection"`
	Exists      bool   `json:"exists"`
	Size        int    `json:"embedding_size"`
	Distance    string `json:"distance,omitempty"`
	PointsCount int64  `json:"points_count"`
}

type SearchRequest struct {
	Text  string `json:"text" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,gt=0,lte=100"`
}

type RetrievedDocument struct {
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type AnswerRequest struct {
	Text   string `json:"text" validate:"required"`
	Limit  int    `json:"limit" validate:"omitempty,gt=0,lte=100"`
	Locale string `json:"locale" validate:"omitempty,max=16"`
}

// AnswerResult is the terminal state of one query. Answer, FullPrompt and
// History are either all set (ANSWERED) or all empty (NO_MATCH).
type AnswerResult struct {
	State      AnswerState   `json:"state"`
	Answer     string        `json:"answer,omitempty"`
	FullPrompt string        `json:"full_prompt,omitempty"`
	History    []llm.Message `json:"chat_history,omitempty"`
}

func NoMatch() *AnswerResult {
	return &AnswerResult{State: AnswerStateNoMatch}
}

func (r *AnswerResult) Answered() bool {
	return r != nil && r.State == AnswerStateAnswered
}

const (
	SignalAnswerFound = "answer_found"
	SignalNoAnswer    = "no_answer"
)

type AnswerResponse struct {
	Signal string `json:"signal"`
	*AnswerResult
}

func NewAnswerResponse(res *AnswerResult) *AnswerResponse {
	signal := SignalNoAnswer
	if res.Answered() {
		signal = SignalAnswerFound
	}
	return &AnswerResponse{Signal: signal, AnswerResult: res}
}

type SearchResponse struct {
	Results []RetrievedDocument `json:"results"`
}
