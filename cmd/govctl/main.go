// govctl is the operator CLI for the governance console. It talks to the
// console HTTP API and prints the raw JSON envelopes, so output can be piped
// into jq during reviews.
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
)

var (
	baseURL string
	token   string

	uploadName    string
	uploadVersion string
	uploadFile    string
	rejectReason  string
	stateFilter   string
)

var rootCmd = &cobra.Command{
	Use:   "govctl",
	Short: "Operator CLI for the artifact governance console",
	Long: `govctl drives the governance console API: list and inspect data
contracts and rulesets, upload new submissions, approve or reject pending
ones, and trigger maintenance jobs.

The console endpoint comes from --base-url or CONSOLE_BASE_URL, the admin
bearer token from --token or CONSOLE_TOKEN.`,
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:   "list [contracts|rulesets]",
	Short: "List artifacts of a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/console/v1/" + args[0]
		if stateFilter != "" {
			path += "?state=" + stateFilter
		}
		return call("GET", path, nil)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [contracts|rulesets] [id-or-name]",
	Short: "Fetch one artifact by id or name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("GET", "/console/v1/"+args[0]+"/"+args[1], nil)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [contracts|rulesets] [id-or-name]",
	Short: "Show an artifact's audit events",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("GET", "/console/v1/"+args[0]+"/"+args[1]+"/events", nil)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [contracts|rulesets]",
	Short: "Submit artifact content from a file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(uploadName) == "" {
			return fmt.Errorf("--name is required")
		}
		content, err := readContent(uploadFile)
		if err != nil {
			return err
		}
		body := map[string]string{
			"name":    uploadName,
			"version": uploadVersion,
			"content": content,
		}
		return call("POST", "/console/v1/"+args[0], body)
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve [contracts|rulesets] [id-or-name]",
	Short: "Approve a pending artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("POST", "/console/v1/"+args[0]+"/"+args[1]+"/approve", nil)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject [contracts|rulesets] [id-or-name]",
	Short: "Reject a pending artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body any
		if rejectReason != "" {
			body = map[string]string{"reason": rejectReason}
		}
		return call("POST", "/console/v1/"+args[0]+"/"+args[1]+"/reject", body)
	},
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Work with data-contract draft sessions",
}

var draftStartCmd = &cobra.Command{
	Use:   "start [message]",
	Short: "Start a draft session from a description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("POST", "/console/v1/drafts",
			map[string]string{"message": strings.Join(args, " ")})
	},
}

var draftSendCmd = &cobra.Command{
	Use:   "send [draft-id] [message]",
	Short: "Add a message to a draft session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("POST", "/console/v1/drafts/"+args[0]+"/messages",
			map[string]string{"message": strings.Join(args[1:], " ")})
	},
}

var draftSubmitCmd = &cobra.Command{
	Use:   "submit [draft-id]",
	Short: "Submit a draft as a data contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body any
		if uploadName != "" {
			body = map[string]string{"name": uploadName}
		}
		return call("POST", "/console/v1/drafts/"+args[0]+"/submit", body)
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and trigger console jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("GET", "/console/v1/jobs", nil)
	},
}

var jobsRunCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Trigger a job by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("POST", "/console/v1/jobs/"+args[0]+"/run", nil)
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [name]",
	Short: "Show a job's last run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("GET", "/console/v1/jobs/"+args[0], nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url",
		envDefault("CONSOLE_BASE_URL", "http://localhost:8086"), "console endpoint")
	rootCmd.PersistentFlags().StringVar(&token, "token",
		os.Getenv("CONSOLE_TOKEN"), "admin bearer token")

	listCmd.Flags().StringVar(&stateFilter, "state", "", "filter by state (pending, active, rejected)")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "artifact name")
	uploadCmd.Flags().StringVar(&uploadVersion, "version", "", "artifact version")
	uploadCmd.Flags().StringVar(&uploadFile, "file", "", "content file (defaults to stdin)")
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "rejection reason")
	draftSubmitCmd.Flags().StringVar(&uploadName, "name", "", "contract name (defaults to the suggested name)")

	draftCmd.AddCommand(draftStartCmd, draftSendCmd, draftSubmitCmd)
	jobsCmd.AddCommand(jobsRunCmd, jobsStatusCmd)
	rootCmd.AddCommand(listCmd, getCmd, eventsCmd, uploadCmd, approveCmd, rejectCmd, draftCmd, jobsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func readContent(path string) (string, error) {
	if path == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func call(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(raw))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}
