package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/setu/pkg/backend"
)

func (c *cli) orgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "List or create organizations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}
			orgs, err := sys.directory.Organizations(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), orgs, func(w io.Writer) error {
				rows := make([][]string, len(orgs))
				for i, o := range orgs {
					rows[i] = []string{o.ID.String(), o.Name, o.Description}
				}
				return table(w, []string{"ID", "NAME", "DESCRIPTION"}, rows)
			})
		},
	}

	var create backend.CreateOrganization
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}
			org, err := sys.directory.CreateOrganization(cmd.Context(), create)
			if err != nil {
				return detailError(err)
			}
			return c.print(cmd.OutOrStdout(), org, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Organization %q created (id %s).\n", org.Name, org.ID)
				return err
			})
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "organization name")
	createCmd.Flags().StringVar(&create.Description, "description", "", "optional description")
	createCmd.MarkFlagRequired("name")

	cmd.AddCommand(list, createCmd)
	return cmd
}

func (c *cli) branchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List or create branches",
	}

	var orgID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the branches of an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}
			branches, err := sys.directory.Branches(cmd.Context(), orgID)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), branches, func(w io.Writer) error {
				rows := make([][]string, len(branches))
				for i, b := range branches {
					rows[i] = []string{b.ID.String(), b.Name, b.Location}
				}
				return table(w, []string{"ID", "NAME", "LOCATION"}, rows)
			})
		},
	}
	list.Flags().StringVar(&orgID, "org", "", "organization id")
	list.MarkFlagRequired("org")

	var create backend.CreateBranch
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}
			branch, err := sys.directory.CreateBranch(cmd.Context(), create)
			if err != nil {
				return detailError(err)
			}
			return c.print(cmd.OutOrStdout(), branch, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Branch %q created (id %s).\n", branch.Name, branch.ID)
				return err
			})
		},
	}
	createCmd.Flags().StringVar(&create.OrgID, "org", "", "organization id")
	createCmd.Flags().StringVar(&create.Name, "name", "", "branch name")
	createCmd.Flags().StringVar(&create.Location, "location", "", "optional location")
	createCmd.MarkFlagRequired("org")
	createCmd.MarkFlagRequired("name")

	cmd.AddCommand(list, createCmd)
	return cmd
}

func (c *cli) departmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "departments",
		Aliases: []string{"depts"},
		Short:   "List or create departments",
	}

	var branchID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the departments of a branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}
			depts, err := sys.directory.Departments(cmd.Context(), branchID)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), depts, func(w io.Writer) error {
				rows := make([][]string, len(depts))
				for i, d := range depts {
					rows[i] = []string{d.ID.String(), d.Name}
				}
				return table(w, []string{"ID", "NAME"}, rows)
			})
		},
	}
	list.Flags().StringVar(&branchID, "branch", "", "branch id")
	list.MarkFlagRequired("branch")

	var create backend.CreateDepartment
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}
			dept, err := sys.directory.CreateDepartment(cmd.Context(), create)
			if err != nil {
				return detailError(err)
			}
			return c.print(cmd.OutOrStdout(), dept, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Department %q created (id %s).\n", dept.Name, dept.ID)
				return err
			})
		},
	}
	createCmd.Flags().StringVar(&create.BranchID, "branch", "", "branch id")
	createCmd.Flags().StringVar(&create.Name, "name", "", "department name")
	createCmd.MarkFlagRequired("branch")
	createCmd.MarkFlagRequired("name")

	cmd.AddCommand(list, createCmd)
	return cmd
}
