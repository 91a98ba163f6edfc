// Package directory manages the organization, branch, and department
// hierarchy held by the emissions backend and supplies the cascading
// select options every data-entry form needs.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/validation"
)

// Source is the subset of the backend client the directory uses.
type Source interface {
	Organizations(ctx context.Context) ([]backend.Organization, error)
	Branches(ctx context.Context, orgID string) ([]backend.Branch, error)
	Departments(ctx context.Context, branchID string) ([]backend.Department, error)
	CreateOrganization(ctx context.Context, cmd backend.CreateOrganization) (*backend.Organization, error)
	CreateBranch(ctx context.Context, cmd backend.CreateBranch) (*backend.Branch, error)
	CreateDepartment(ctx context.Context, cmd backend.CreateDepartment) (*backend.Department, error)
}

// System defines the public contract for directory operations.
type System interface {
	Handler() *Handler

	Organizations(ctx context.Context) ([]backend.Organization, error)
	Branches(ctx context.Context, orgID string) ([]backend.Branch, error)
	Departments(ctx context.Context, branchID string) ([]backend.Department, error)

	CreateOrganization(ctx context.Context, cmd backend.CreateOrganization) (*backend.Organization, error)
	CreateBranch(ctx context.Context, cmd backend.CreateBranch) (*backend.Branch, error)
	CreateDepartment(ctx context.Context, cmd backend.CreateDepartment) (*backend.Department, error)

	Cascade(ctx context.Context, orgID, branchID string) Options
}

// Options holds the select options for one position in the cascade.
// A level whose parent is unset, or whose fetch failed, is empty.
type Options struct {
	Organizations []backend.Organization `json:"organizations"`
	Branches      []backend.Branch       `json:"branches"`
	Departments   []backend.Department   `json:"departments"`
}

type system struct {
	source Source
	logger *slog.Logger
}

// New creates the directory system.
func New(source Source, logger *slog.Logger) System {
	return &system{
		source: source,
		logger: logger.With("system", "directory"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) Organizations(ctx context.Context) ([]backend.Organization, error) {
	return s.source.Organizations(ctx)
}

func (s *system) Branches(ctx context.Context, orgID string) ([]backend.Branch, error) {
	return s.source.Branches(ctx, orgID)
}

func (s *system) Departments(ctx context.Context, branchID string) ([]backend.Department, error) {
	return s.source.Departments(ctx, branchID)
}

func (s *system) CreateOrganization(ctx context.Context, cmd backend.CreateOrganization) (*backend.Organization, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Description = strings.TrimSpace(cmd.Description)
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	org, err := s.source.CreateOrganization(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	s.logger.InfoContext(ctx, "organization created", "id", org.ID, "name", org.Name)
	return org, nil
}

func (s *system) CreateBranch(ctx context.Context, cmd backend.CreateBranch) (*backend.Branch, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Location = strings.TrimSpace(cmd.Location)
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	branch, err := s.source.CreateBranch(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}

	s.logger.InfoContext(ctx, "branch created", "id", branch.ID, "org_id", cmd.OrgID)
	return branch, nil
}

func (s *system) CreateDepartment(ctx context.Context, cmd backend.CreateDepartment) (*backend.Department, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	dept, err := s.source.CreateDepartment(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}

	s.logger.InfoContext(ctx, "department created", "id", dept.ID, "branch_id", cmd.BranchID)
	return dept, nil
}

// Cascade fetches organizations, plus branches when orgID is set and
// departments when branchID is set. The levels are fetched concurrently.
// A failed level is logged and left empty; Cascade itself never fails.
func (s *system) Cascade(ctx context.Context, orgID, branchID string) Options {
	opts := Options{
		Organizations: []backend.Organization{},
		Branches:      []backend.Branch{},
		Departments:   []backend.Department{},
	}

	var g errgroup.Group

	g.Go(func() error {
		if orgs, err := s.source.Organizations(ctx); err != nil {
			s.logger.WarnContext(ctx, "cascade organizations failed", "error", err)
		} else if orgs != nil {
			opts.Organizations = orgs
		}
		return nil
	})

	if orgID != "" {
		g.Go(func() error {
			if branches, err := s.source.Branches(ctx, orgID); err != nil {
				s.logger.WarnContext(ctx, "cascade branches failed", "org_id", orgID, "error", err)
			} else if branches != nil {
				opts.Branches = branches
			}
			return nil
		})
	}

	if orgID != "" && branchID != "" {
		g.Go(func() error {
			if depts, err := s.source.Departments(ctx, branchID); err != nil {
				s.logger.WarnContext(ctx, "cascade departments failed", "branch_id", branchID, "error", err)
			} else if depts != nil {
				opts.Departments = depts
			}
			return nil
		})
	}

	g.Wait()
	return opts
}
