package contract

import "context"

// AnswerCache stores serialized answers per project. InvalidateProject drops
// every entry of the project at once.
type AnswerCache interface {
	Get(ctx context.Context, projectId, key string) ([]byte, bool, error)
	Set(ctx context.Context, projectId, key string, value []byte) error
	InvalidateProject(ctx context.Context, projectId string) error
}
