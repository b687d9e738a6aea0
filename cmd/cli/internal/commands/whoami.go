package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx context.Context, globals *Globals, out io.Writer) error {
	me, err := globals.portalClient().Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to get principal: %w", err)
	}

	fmt.Fprintf(out, "User:          %s\n", me.ID)
	fmt.Fprintf(out, "Email:         %s\n", me.Email)
	fmt.Fprintf(out, "Roles:         %s\n", strings.Join(me.Roles, ", "))
	switch {
	case me.Organisation != nil:
		fmt.Fprintf(out, "Organisation:  %s (%s)\n", me.Organisation.Slug, me.Organisation.ID)
	case me.OrganisationID != nil:
		fmt.Fprintf(out, "Organisation:  %s\n", me.OrganisationID)
	default:
		fmt.Fprintln(out, "Organisation:  none")
	}
	return nil
}
