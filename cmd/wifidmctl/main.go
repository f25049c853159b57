package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wifidm/pkg/types"
)

// wifidmctl is a thin CLI over the wifidmd HTTP API.

type client struct {
	base string
	http *http.Client
}

func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *client) post(path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *client) del(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var e types.ErrorResponse
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func parseWorkSource(ws string) types.WorkSource {
	if ws == "" {
		return types.WorkSource{}
	}
	return types.NewWorkSource(strings.Split(ws, ",")...)
}

func buildRootCmd() *cobra.Command {
	defaultBase := "http://127.0.0.1:8080"
	if v := os.Getenv("WIFIDM_URL"); v != "" {
		defaultBase = v
	}
	c := &client{http: &http.Client{Timeout: 10 * time.Second}}

	root := &cobra.Command{
		Use:           "wifidmctl",
		Short:         "Control and inspect a running wifidmd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.base, "url", defaultBase, "Base URL of wifidmd (defaults WIFIDM_URL)")

	statusCmd := &cobra.Command{Use: "status", Short: "Show chip and interface status", RunE: func(cmd *cobra.Command, args []string) error {
		var out types.StatusResponse
		if err := c.get("/v1/status", &out); err != nil {
			return err
		}
		return printJSON(out)
	}}

	var capsTypes string
	capsCmd := &cobra.Command{Use: "caps", Short: "Show chip capabilities and supported interface types", RunE: func(cmd *cobra.Command, args []string) error {
		path := "/v1/capabilities"
		if capsTypes != "" {
			path += "?types=" + url.QueryEscape(capsTypes)
		}
		var out types.CapabilitiesResponse
		if err := c.get(path, &out); err != nil {
			return err
		}
		return printJSON(out)
	}}
	capsCmd.Flags().StringVar(&capsTypes, "types", "", "Concurrency query, e.g. STA:1,AP:1")

	ifacesCmd := &cobra.Command{Use: "ifaces", Short: "Manage interfaces", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("ifaces requires a subcommand: list|create|delete")
	}}
	ifacesList := &cobra.Command{Use: "list", Short: "List managed interfaces", RunE: func(cmd *cobra.Command, args []string) error {
		var out map[string][]types.IfaceView
		if err := c.get("/v1/ifaces", &out); err != nil {
			return err
		}
		return printJSON(out)
	}}

	var createWs string
	ifacesCreate := &cobra.Command{
		Use:     "create <type>",
		Short:   "Request an interface (sta|ap|ap_bridged|p2p|nan)",
		Example: "  wifidmctl ifaces create sta --ws settings\n  wifidmctl ifaces create ap --ws tethering",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out types.CreateIfaceResponse
			err := c.post("/v1/ifaces", types.CreateIfaceRequest{
				Type:       args[0],
				WorkSource: parseWorkSource(createWs),
			}, &out)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	ifacesCreate.Flags().StringVar(&createWs, "ws", "", "Comma-separated work source holders")

	ifacesDelete := &cobra.Command{
		Use:   "delete <type> <name>",
		Short: "Destroy an interface",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.del("/v1/ifaces/" + args[0] + "/" + args[1]); err != nil {
				return err
			}
			fmt.Println("deleted", args[1])
			return nil
		},
	}
	ifacesCmd.AddCommand(ifacesList, ifacesCreate, ifacesDelete)

	var impactWs string
	var impactQuery bool
	impactCmd := &cobra.Command{
		Use:   "impact <type>",
		Short: "Show which interfaces a creation would destroy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out types.ImpactResponse
			err := c.post("/v1/impact", types.ImpactRequest{
				Type:       args[0],
				QueryOnly:  impactQuery,
				WorkSource: parseWorkSource(impactWs),
			}, &out)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	impactCmd.Flags().StringVar(&impactWs, "ws", "", "Comma-separated work source holders")
	impactCmd.Flags().BoolVar(&impactQuery, "query", true, "Evaluate a hypothetical new interface even if one of the type exists")

	root.AddCommand(statusCmd, capsCmd, ifacesCmd, impactCmd)
	return root
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
