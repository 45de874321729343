package dto

// IngestRequest carries raw text for one source file.
type IngestRequest struct {
	ProjectId    string `json:"-"`
	Filename     string `json:"filename" validate:"required,max=512"`
	Text         string `json:"text" validate:"required"`
	ChunkSize    int    `json:"chunk_size" validate:"omitempty,gt=0"`
	ChunkOverlap int    `json:"overlap_size" validate:"omitempty,gte=0"`
	// LinesPerChunk switches to fixed line-count chunking; size and overlap are ignored.
	LinesPerChunk int            `json:"lines_per_chunk" validate:"omitempty,gt=0"`
	DoReset       bool           `json:"do_reset"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ProcessFileRequest chunks a file previously stored through the upload route.
type ProcessFileRequest struct {
	ProjectId     string `json:"-"`
	FileId        string `json:"file_id" validate:"required"`
	ChunkSize     int    `json:"chunk_size" validate:"omitempty,gt=0"`
	ChunkOverlap  int    `json:"overlap_size" validate:"omitempty,gte=0"`
	LinesPerChunk int    `json:"lines_per_chunk" validate:"omitempty,gt=0"`
	DoReset       bool   `json:"do_reset"`
}

type IngestResult struct {
	ProjectId      string `json:"project_id"`
	Filename       string `json:"filename"`
	FileIndex      int    `json:"file_index"`
	ChunksCreated  int    `json:"inserted_chunks"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	OverlapClamped bool   `json:"overlap_clamped"`
}

type UploadResponse struct {
	ProjectId string `json:"project_id"`
	FileId    string `json:"file_id"`
	Size      int64  `json:"size"`
}
