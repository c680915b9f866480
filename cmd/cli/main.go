// Command cli is a small client for the gateway's session API: it opens a
// session, runs a statement batch, pages through the cursor, and closes
// the session.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host  string
		user  string
		token string
	)

	rootCmd := &cobra.Command{
		Use:           "fedsql",
		Short:         "Federated SQL gateway CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// FEDSQL_HOST, FEDSQL_USER, FEDSQL_TOKEN override unset flags.
			cmd.Root().PersistentFlags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				env := "FEDSQL_" + strings.ToUpper(f.Name)
				if v := os.Getenv(env); v != "" {
					_ = f.Value.Set(v)
				}
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://127.0.0.1:8080", "gateway base URL")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "user name for the trusted identity header")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token")

	client := &gatewayClient{host: &host, user: &user, token: &token, http: &http.Client{Timeout: 5 * time.Minute}}

	rootCmd.AddCommand(newQueryCmd(client))
	rootCmd.AddCommand(newHealthCmd(client))
	return rootCmd
}

func newQueryCmd(c *gatewayClient) *cobra.Command {
	var (
		database  string
		fetchSize int
		maxRows   int
	)

	cmd := &cobra.Command{
		Use:   "query <sql> [sql...]",
		Short: "Run a statement batch and print the last statement's result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opened struct {
				SessionID string `json:"session_id"`
			}
			if err := c.do(http.MethodPost, "/api/v1/sessions", map[string]any{"database": database}, &opened); err != nil {
				return err
			}
			defer func() {
				_ = c.do(http.MethodDelete, "/api/v1/sessions/"+opened.SessionID, nil, nil)
			}()

			var result struct {
				Kind   string            `json:"kind"`
				Schema []json.RawMessage `json:"schema"`
				Rows   [][]any           `json:"rows"`
			}
			body := map[string]any{"statements": args, "fetch_size": fetchSize, "max_rows": maxRows}
			if err := c.do(http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/query", body, &result); err != nil {
				return err
			}

			out := json.NewEncoder(cmd.OutOrStdout())
			if result.Kind == "DIRECT" {
				return out.Encode(result)
			}

			// Cursor-backed result: page until the server reports no more.
			for {
				var batch struct {
					Schema  []json.RawMessage `json:"schema"`
					Rows    [][]any           `json:"rows"`
					HasMore bool              `json:"has_more"`
				}
				if err := c.do(http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/fetch", map[string]any{}, &batch); err != nil {
					return err
				}
				if err := out.Encode(batch); err != nil {
					return err
				}
				if !batch.HasMore {
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "database to bind the session to")
	cmd.Flags().IntVar(&fetchSize, "fetch-size", 1000, "rows per fetch batch")
	cmd.Flags().IntVar(&maxRows, "max-rows", 10000, "total row cap (0 = no rows)")
	return cmd
}

func newHealthCmd(c *gatewayClient) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check gateway liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status map[string]string
			if err := c.do(http.MethodGet, "/health", nil, &status); err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
		},
	}
}

type gatewayClient struct {
	host  *string
	user  *string
	token *string
	http  *http.Client
}

func (c *gatewayClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, *c.host+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if *c.token != "" {
		req.Header.Set("Authorization", "Bearer "+*c.token)
	}
	if *c.user != "" {
		req.Header.Set("X-Fedsql-User", *c.user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
