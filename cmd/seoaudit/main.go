// Seoaudit checks the robots.txt and sitemap.xml a running site serves for a host.
//
//	seoaudit check --host acme.thatsmartsite.com --https
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"thatsmartsite/backend/internal/seo"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seoaudit",
		Short:        "Audit robots.txt and sitemap.xml for tenant hosts",
		SilenceUsage: true,
	}
	root.AddCommand(newCheckCmd())
	return root
}

func newCheckCmd() *cobra.Command {
	var (
		host    string
		https   bool
		baseURL string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch and check one host",
		Long: `Fetches /robots.txt and /sitemap.xml for --host and reports whether robots
blocks every crawler, whether a Sitemap directive is present, how many URLs the
sitemap lists and which of them point at another host.

Exits non-zero when a live (non-preview) host blocks everything or the sitemap
is not valid XML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			a := &seo.Auditor{Client: &http.Client{Timeout: timeout}, BaseURL: baseURL}
			rep, err := a.Audit(ctx, host, https)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return rep.Problem()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "host to audit (required)")
	cmd.Flags().BoolVar(&https, "https", false, "reach the host over https")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "send requests here instead of the host, keeping the Host header")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "overall request timeout")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

func printReport(w io.Writer, rep *seo.AuditReport) {
	kind := "live"
	if rep.Preview {
		kind = "preview"
	}
	fmt.Fprintf(w, "host:             %s (%s)\n", rep.Host, kind)
	fmt.Fprintf(w, "robots blocks all: %t\n", rep.BlocksAll)
	fmt.Fprintf(w, "sitemap declared:  %t\n", rep.SitemapDeclared)
	if rep.SitemapErr != nil {
		fmt.Fprintf(w, "sitemap:           invalid (%v)\n", rep.SitemapErr)
		return
	}
	fmt.Fprintf(w, "sitemap urls:      %d\n", rep.URLCount)
	for _, u := range rep.ForeignURLs {
		fmt.Fprintf(w, "  foreign url:     %s\n", u)
	}
}
