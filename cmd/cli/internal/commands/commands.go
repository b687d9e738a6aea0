package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ledenhub/ledenhub/internal/client"
)

type Globals struct {
	Debug   bool
	Version string

	Server  string
	Token   string
	Tracing bool
}

func (g *Globals) portalClient() *client.PortalClient {
	return client.NewPortalClient(client.PortalConfig{
		ServerURL: g.Server,
		Token:     g.Token,
		Timeout:   30 * time.Second,
		Tracing:   g.Tracing,
	})
}

func printOrganisations(out io.Writer, orgs []client.Organisation) {
	if len(orgs) == 0 {
		fmt.Fprintln(out, "No organisations found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tNAME\tSTATUS\tBILLING\tCREATED")
	for _, org := range orgs {
		billing := org.BillingStatus
		if org.BillingNote != nil {
			billing += " (" + truncate(*org.BillingNote, 30) + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			org.ID,
			org.Slug,
			truncate(org.Name, 30),
			org.Status,
			billing,
			org.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTotal: %d\n", len(orgs))
}

func printOrganisation(out io.Writer, org *client.Organisation) {
	note := "-"
	if org.BillingNote != nil {
		note = *org.BillingNote
	}
	fmt.Fprintf(out, "ID:       %s\n", org.ID)
	fmt.Fprintf(out, "Slug:     %s\n", org.Slug)
	fmt.Fprintf(out, "Name:     %s\n", org.Name)
	fmt.Fprintf(out, "Status:   %s\n", org.Status)
	fmt.Fprintf(out, "Billing:  %s\n", org.BillingStatus)
	fmt.Fprintf(out, "Note:     %s\n", note)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}
