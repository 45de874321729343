package cli

import (
	"github.com/spf13/cobra"
)

func newProjectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	create := &cobra.Command{
		Use:   "create [project_id]",
		Short: "Create a project and allocate its index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			project, err := svc.Projects.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s %s (index %d)\n", okColor.Sprint("created"), project.ProjectId, project.ProjectIndex)
			return nil
		},
	}

	var page, pageSize int
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects by index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Projects.List(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			if len(res.Projects) == 0 {
				cmd.Println("No projects found.")
				return nil
			}
			for _, p := range res.Projects {
				cmd.Printf("  [%d] %s\n", p.ProjectIndex, p.ProjectId)
			}
			cmd.Println(dimColor.Sprintf("page %d/%d, %d total", res.CurrentPage, res.TotalPages, res.Total))
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&pageSize, "page-size", 10, "projects per page")

	get := &cobra.Command{
		Use:   "get [project_id]",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.get(cmd.Context())
			if err != nil {
				return err
			}
			project, err := svc.Projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s (index %d, created %s)\n", project.ProjectId, project.ProjectIndex, project.CreatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.AddCommand(create, list, get)
	return cmd
}
