package cli

import (
	"rag-pipeline-be/internal/dto"

	"github.com/spf13/cobra"
)

func newSearchCommand(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search [project_id] [query]",
		Short: "Search a project's vector index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			docs, err := svc.NLP.Search(cmd.Context(), args[0], args[1], limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, docs)
			}
			if len(docs) == 0 {
				cmd.Println("No results found.")
				return nil
			}
			for i, doc := range docs {
				cmd.Printf("  [%d] %s\n", i+1, dimColor.Sprintf("%.4f", doc.Score))
				cmd.Printf("      %s\n\n", doc.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func newAnswerCommand(a *app) *cobra.Command {
	var (
		limit  int
		locale string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "answer [project_id] [query]",
		Short: "Answer a question from a project's documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.NLP.Answer(cmd.Context(), args[0], dto.AnswerRequest{
				Text:   args[1],
				Limit:  limit,
				Locale: locale,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, dto.NewAnswerResponse(res))
			}
			if !res.Answered() {
				cmd.Println(warnColor.Sprint("No answer found."))
				return nil
			}
			cmd.Println(res.Answer)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "documents retrieved as context")
	cmd.Flags().StringVar(&locale, "locale", "", "prompt template locale")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the full result as JSON")
	return cmd
}
