package commands

import (
	"fmt"
	"os"
	"ucrauth/lib/serviceutil"
	"ucrauth/lib/session"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	sessionRefresh      bool
	sessionSaveKey      string
	sessionRegistration bool
)

func init() {
	sessionCmd.Flags().BoolVar(&sessionRefresh, "refresh", false, "Logs in again even if a session is cached.")
	sessionCmd.Flags().StringVar(&sessionSaveKey, "save", "", "Saves the session to --store under this key.")
	sessionCmd.Flags().BoolVar(&sessionRegistration, "registration", false, "Also collects the course registration system's cookies.")
	rootCmd.AddCommand(sessionCmd)
}

// redact never shows a cookie value, only how long it is.
func redact(value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("<%d bytes>", len(value))
}

func printCookies(jar *session.Jar) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Domain", "Path", "Name", "Value", "Expires", "Secure", "HttpOnly"})

	for _, c := range jar.All() {
		expires := "session"
		if !c.Expires.IsZero() {
			expires = c.Expires.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{c.Domain, c.Path, c.Name, redact(c.Value), expires, c.Secure, c.HttpOnly})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

var sessionCmd = &cobra.Command{
	Use:   "session [--refresh] [--registration] [--save <key>]",
	Short: "Acquires a session and prints its cookies with their values hidden.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		s, err := newState(ctx)
		if err != nil {
			serviceutil.Fatal("failed to initialize", err)
		}
		defer s.close()

		err = s.ensureSession(ctx, sessionRefresh)
		if err != nil {
			serviceutil.Fatal("failed to acquire session", err)
		}
		jar := s.authority.Cached()

		if sessionRegistration {
			_, err = s.authority.FetchRegistrationCookies(ctx, jar)
			if err != nil {
				serviceutil.Fatal("failed to fetch registration cookies", err)
			}
		}

		if sessionSaveKey != "" {
			if s.store == nil {
				serviceutil.Fatal("failed to save session", fmt.Errorf("--save requires --store"))
			}
			err = s.store.Save(ctx, sessionSaveKey, jar.Snapshot())
			if err != nil {
				serviceutil.Fatal("failed to save session", err)
			}
		}

		printCookies(jar)
	},
}
