package commands

import (
	"fmt"
	"os"
	"ucrauth/lib/scrapers/ilearn"
	"ucrauth/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	coursesBaseUrl string
	coursesFind    string
)

func init() {
	coursesCmd.Flags().StringVar(&coursesBaseUrl, "base-url", ilearn.DefaultBaseUrl, "The iLearn instance.")
	coursesCmd.Flags().StringVar(&coursesFind, "find", "", "Only prints the course most similar to this name.")
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses [--find <name>]",
	Short: "Logs into iLearn with the session and lists your courses.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		s, err := newState(ctx)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer s.close()

		client := ilearn.NewClient(s.authority, coursesBaseUrl)
		err = client.Login(ctx)
		if err != nil {
			serviceutil.Fatal("failed to log into ilearn", err)
		}
		courses, err := client.Courses(ctx)
		if err != nil {
			serviceutil.Fatal("failed to list courses", err)
		}

		if coursesFind != "" {
			course, ok := ilearn.FindCourse(courses, coursesFind)
			if !ok {
				serviceutil.Fatal("failed to find course", fmt.Errorf("nothing resembles %q", coursesFind))
			}
			courses = []ilearn.Course{course}
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Name", "Href"})
		for _, c := range courses {
			t.AppendRow(table.Row{c.Id(), c.Name, c.Href})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
