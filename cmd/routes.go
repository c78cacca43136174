package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/routes"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Manage domain routes to dev environment ports",
}

var routesAddCmd = &cobra.Command{
	Use:   "add <port>",
	Short: "Route a domain to a port inside the project's dev environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoutesAdd,
}

var routesRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove a project's route",
	Args:  cobra.NoArgs,
	RunE:  runRoutesRm,
}

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all routes",
	Args:  cobra.NoArgs,
	RunE:  runRoutesList,
}

var routesRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the proxy routes file (or hosts snippet)",
	Args:  cobra.NoArgs,
	RunE:  runRoutesRender,
}

var (
	routesDomain  string
	routesProject string
	routesHosts   bool
)

func init() {
	routesAddCmd.Flags().StringVar(&routesDomain, "domain", "", "Domain label or full host name (default: project name)")
	routesRmCmd.Flags().StringVar(&routesProject, "project", "", "Project id (default: the current project)")
	routesRenderCmd.Flags().BoolVar(&routesHosts, "hosts", false, "Print the hosts file snippet instead")

	routesCmd.AddCommand(routesAddCmd, routesRmCmd, routesListCmd, routesRenderCmd)
	rootCmd.AddCommand(routesCmd)
}

func runRoutesAdd(cmd *cobra.Command, args []string) error {
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}

	rec, err := loadRecord(cmd)
	if err != nil {
		return err
	}
	target, err := manager(cmd).ResolveProxyTarget(cmd.Context(), *rec, port)
	if err != nil {
		return err
	}

	table, global, err := currentApp(cmd).Routes()
	if err != nil {
		return err
	}
	label := routesDomain
	if label == "" {
		label = rec.ProjectName
	}
	route := devenv.RouteRecord{
		ProjectID:    rec.ProjectID,
		EnvID:        rec.ID,
		Domain:       routes.ResolveDomain(label, global.DomainSuffix()),
		InternalPort: port,
		TargetHost:   target.Host,
		TargetPort:   target.Port,
	}
	if _, err := table.Upsert(route); err != nil {
		return err
	}

	logSuccess("Routed %s to %s:%d", route.Domain, route.TargetHost, route.TargetPort)
	return nil
}

func runRoutesRm(cmd *cobra.Command, args []string) error {
	id := routesProject
	if id == "" {
		id = manager(cmd).ProjectInfo().ProjectID
	}

	table, _, err := currentApp(cmd).Routes()
	if err != nil {
		return err
	}
	if _, err := table.Remove(id); err != nil {
		return err
	}
	logSuccess("Removed route for %s", id)
	return nil
}

func runRoutesList(cmd *cobra.Command, args []string) error {
	table, _, err := currentApp(cmd).Routes()
	if err != nil {
		return err
	}
	list, err := table.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		logInfo("No routes found. Add one with: devenv-ctl routes add <port>")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, tableHeaderStyle.Render("PROJECT\tDOMAIN\tCONTAINER\tTARGET"))
	fmt.Fprintln(w, "-------\t------\t---------\t------")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s:%d\n", r.ProjectID, r.Domain, r.EnvID, r.TargetHost, r.TargetPort)
	}
	return w.Flush()
}

func runRoutesRender(cmd *cobra.Command, args []string) error {
	table, _, err := currentApp(cmd).Routes()
	if err != nil {
		return err
	}
	list, err := table.List()
	if err != nil {
		return err
	}

	if routesHosts {
		fmt.Fprint(cmd.OutOrStdout(), routes.BuildHostsFile(list))
		return nil
	}
	data, err := routes.BuildRoutesFile(list, routes.EntrypointName)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
