package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"rag-pipeline-be/internal/dto"

	"github.com/spf13/cobra"
)

func newIngestCommand(a *app) *cobra.Command {
	var (
		chunkSize int
		overlap   int
		lines     int
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [project_id] [file]",
		Short: "Chunk a text file into a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if !utf8.Valid(raw) {
				return fmt.Errorf("%s is not UTF-8 text", args[1])
			}

			svc, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Ingest.Process(cmd.Context(), dto.IngestRequest{
				ProjectId:     args[0],
				Filename:      filepath.Base(args[1]),
				Text:          string(raw),
				ChunkSize:     chunkSize,
				ChunkOverlap:  overlap,
				LinesPerChunk: lines,
				DoReset:       reset,
			})
			if err != nil {
				return err
			}

			cmd.Printf("%s %d chunks from %s as file %d\n", okColor.Sprint("ingested"), res.ChunksCreated, res.Filename, res.FileIndex)
			if res.OverlapClamped {
				cmd.Println(warnColor.Sprintf("overlap clamped to %d", res.ChunkOverlap))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "characters per chunk (0 uses the configured default)")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "characters shared by consecutive chunks")
	cmd.Flags().IntVar(&lines, "lines", 0, "split by this many lines per chunk instead of characters")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop the project's chunks and index first")
	return cmd
}

func newIndexCommand(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "index [project_id]",
		Short: "Embed every chunk of a project into its vector collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Vectors.IndexProject(cmd.Context(), args[0], reset)
			if err != nil {
				return err
			}
			cmd.Printf("%s %d/%d chunks into %s\n", okColor.Sprint("indexed"), res.Indexed, res.TotalChunks, res.Collection)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "recreate the collection before indexing")
	return cmd
}
