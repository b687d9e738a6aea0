package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

type OrgsCmd struct {
	List     OrgsListCmd     `cmd:"" default:"1" help:"List organisations"`
	Create   OrgsCreateCmd   `cmd:"" help:"Create an organisation"`
	Block    OrgsBlockCmd    `cmd:"" help:"Block an organisation"`
	Activate OrgsActivateCmd `cmd:"" help:"Activate a blocked organisation"`
	Billing  OrgsBillingCmd  `cmd:"" help:"Record a billing status"`
}

type OrgsListCmd struct{}

func (c *OrgsListCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	orgs, err := globals.portalClient().ListOrganisations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organisations: %w", err)
	}
	printOrganisations(out, orgs)
	return nil
}

type OrgsCreateCmd struct {
	Slug string `arg:"" help:"Subdomain label"`
	Name string `arg:"" help:"Display name"`
}

func (c *OrgsCreateCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	org, err := globals.portalClient().CreateOrganisation(ctx, c.Slug, c.Name)
	if err != nil {
		return fmt.Errorf("failed to create organisation: %w", err)
	}
	printOrganisation(out, org)
	return nil
}

type OrgsBlockCmd struct {
	ID string `arg:"" help:"Organisation ID"`
}

func (c *OrgsBlockCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return fmt.Errorf("invalid organisation id: %w", err)
	}
	org, err := globals.portalClient().Block(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to block organisation: %w", err)
	}
	printOrganisation(out, org)
	return nil
}

type OrgsActivateCmd struct {
	ID string `arg:"" help:"Organisation ID"`
}

func (c *OrgsActivateCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return fmt.Errorf("invalid organisation id: %w", err)
	}
	org, err := globals.portalClient().Activate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to activate organisation: %w", err)
	}
	printOrganisation(out, org)
	return nil
}

type OrgsBillingCmd struct {
	ID     string `arg:"" help:"Organisation ID"`
	Status string `arg:"" enum:"ok,pending_payment,restricted" help:"Billing status (ok, pending_payment, restricted)"`
	Note   string `help:"Note shown to the organisation while restricted"`
}

func (c *OrgsBillingCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return fmt.Errorf("invalid organisation id: %w", err)
	}
	var note *string
	if c.Note != "" {
		note = &c.Note
	}
	org, err := globals.portalClient().SetBilling(ctx, id, c.Status, note)
	if err != nil {
		return fmt.Errorf("failed to set billing status: %w", err)
	}
	printOrganisation(out, org)
	return nil
}
