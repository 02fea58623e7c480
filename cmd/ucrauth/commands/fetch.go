package commands

import (
	"fmt"
	"os"
	"ucrauth/lib/auth"
	"ucrauth/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	fetchMethod string
	fetchForm   map[string]string
)

func init() {
	fetchCmd.Flags().StringVarP(&fetchMethod, "method", "X", "GET", "The HTTP method.")
	fetchCmd.Flags().StringToStringVar(&fetchForm, "form", nil, "Form fields to send, as key=value pairs.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url> [-X <method>] [--form key=value,...]",
	Short: "Makes a request with the session and writes the response body to stdout.",
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

		res, err := s.authority.Do(ctx, auth.RequestSpec{
			Method: fetchMethod,
			Url:    args[0],
			Form:   fetchForm,
		})
		if err != nil {
			serviceutil.Fatal("failed to make request", err)
		}

		fmt.Fprintln(os.Stderr, res.Status())
		os.Stdout.Write(res.Body())
	},
}
