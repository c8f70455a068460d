package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	Version   = "dev"
)

// device mirrors the server's device response: the entity plus its verdict
// map. Permitted actions decode as nil reasons.
type device struct {
	ID           uint               `json:"id"`
	Name         string             `json:"name"`
	Enabled      bool               `json:"enabled"`
	VpnIp        string             `json:"vpnIp"`
	VpnConnected bool               `json:"vpnConnected"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	Deny         map[string]*string `json:"deny"`
}

type health struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	VpnSuite    string `json:"vpnSuite"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Maintenance bool   `json:"maintenance"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "emsctl",
		Short: "Sealman EMS - fleet management console client",
		Long:  "Inspect devices, their action verdicts and VPN connections on a Sealman EMS server",
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "EMS server URL")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", os.Getenv("EMS_TOKEN"), "API bearer token (defaults to EMS_TOKEN)")

	rootCmd.AddCommand(
		statusCmd(),
		devicesCmd(),
		deviceCmd(),
		vpnCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var h health
			if err := getJSON("/v1/health", &h); err != nil {
				return err
			}

			fmt.Printf("EMS Status\n")
			fmt.Printf("==========\n\n")
			fmt.Printf("Server:        %s\n", h.Status)
			fmt.Printf("Database:      %s\n", h.Database)
			fmt.Printf("VPN Suite:     %s\n", h.VpnSuite)
			fmt.Printf("Version:       %s\n", h.Version)
			fmt.Printf("Uptime:        %s\n", h.Uptime)
			fmt.Printf("Maintenance:   %v\n", h.Maintenance)

			return nil
		},
	}
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Aliases: []string{"ls", "list"},
		Short:   "List devices in your access scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			var devices []device
			if err := getJSON("/v1/devices", &devices); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENABLED\tVPN IP\tVPN\tDENIED ACTIONS")
			fmt.Fprintln(w, "--\t----\t-------\t------\t---\t--------------")

			for _, d := range devices {
				vpnState := "-"
				if d.VpnConnected {
					vpnState = "connected"
				}
				fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%s\t%s\n", d.ID, d.Name, d.Enabled, d.VpnIp, vpnState, deniedSummary(d.Deny))
			}

			w.Flush()
			return nil
		},
	}
}

func deviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "device [id]",
		Short: "Show one device and its full verdict map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d device
			if err := getJSON("/v1/devices/"+args[0], &d); err != nil {
				return err
			}

			fmt.Printf("Device: %s\n", d.Name)
			fmt.Printf("========================================\n\n")
			fmt.Printf("ID:           %d\n", d.ID)
			fmt.Printf("Enabled:      %v\n", d.Enabled)
			fmt.Printf("VPN IP:       %s\n", d.VpnIp)
			fmt.Printf("VPN:          %v\n", d.VpnConnected)
			fmt.Printf("Updated:      %s (%s ago)\n\n", d.UpdatedAt.Format(time.RFC3339), time.Since(d.UpdatedAt).Round(time.Second))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACTION\tVERDICT")
			fmt.Fprintln(w, "------\t-------")
			for _, action := range sortedActions(d.Deny) {
				verdict := "allowed"
				if reason := d.Deny[action]; reason != nil {
					verdict = *reason
				}
				fmt.Fprintf(w, "%s\t%s\n", action, verdict)
			}
			w.Flush()

			return nil
		},
	}
}

func vpnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpn",
		Short: "Open and close VPN connections",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "open [device-id]",
			Short: "Open a VPN connection to a device",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postJSON("/v1/devices/"+args[0]+"/vpn/open", nil); err != nil {
					return err
				}
				fmt.Println("connection opened")
				return nil
			},
		},
		&cobra.Command{
			Use:   "close [device-id]",
			Short: "Close your VPN connection to a device",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postJSON("/v1/devices/"+args[0]+"/vpn/close", nil); err != nil {
					return err
				}
				fmt.Println("connection closed")
				return nil
			},
		},
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("emsctl version %s\n", Version)
		},
	}
}

func deniedSummary(deny map[string]*string) string {
	denied := make([]string, 0, len(deny))
	for action, reason := range deny {
		if reason != nil {
			denied = append(denied, action)
		}
	}
	if len(denied) == 0 {
		return "-"
	}
	sort.Strings(denied)
	return strings.Join(denied, ",")
}

func sortedActions(deny map[string]*string) []string {
	actions := make([]string, 0, len(deny))
	for action := range deny {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

func doRequest(method, path string, out any) error {
	req, err := http.NewRequest(method, serverURL+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Reason != "" {
				return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Reason)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func getJSON(path string, out any) error {
	return doRequest(http.MethodGet, path, out)
}

func postJSON(path string, out any) error {
	return doRequest(http.MethodPost, path, out)
}
