package commands

import (
	"os"
	"ucrauth/lib/auth"
	"ucrauth/lib/htmlutil"
	"ucrauth/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	linksAttr     string
	linksContains string
)

func init() {
	linksCmd.Flags().StringVar(&linksAttr, "attr", "href", "The attribute --contains is matched against.")
	linksCmd.Flags().StringVar(&linksContains, "contains", "", "Only lists links whose --attr contains this.")
	rootCmd.AddCommand(linksCmd)
}

var linksCmd = &cobra.Command{
	Use:   "links <url> [--attr <attr>] [--contains <substr>]",
	Short: "Lists the links on a page fetched with the session.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		s, err := newState(ctx)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer s.close()

		err = s.ensureSession(ctx, false)
		if err != nil {
			serviceutil.Fatal("failed to acquire session", err)
		}

		res, err := s.authority.Do(ctx, auth.RequestSpec{Url: args[0]})
		if err != nil {
			serviceutil.Fatal("failed to fetch page", err)
		}
		doc, err := htmlutil.Parse(res.Body())
		if err != nil {
			serviceutil.Fatal("failed to parse page", err)
		}

		var anchors []htmlutil.Anchor
		if linksContains == "" {
			anchors = htmlutil.GetAnchors(ctx, doc.Find("a"))
		} else {
			anchors = htmlutil.FilterAnchors(ctx, doc.Selection, linksAttr, linksContains)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Href"})
		for _, a := range anchors {
			t.AppendRow(table.Row{a.Name, a.Href})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
