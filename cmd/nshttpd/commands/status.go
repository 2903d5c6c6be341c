package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/srdjan/ns-http-server/internal/cli/health"
	"github.com/srdjan/ns-http-server/internal/cli/output"
	"github.com/srdjan/ns-http-server/internal/cli/timeutil"
	"github.com/srdjan/ns-http-server/pkg/api/auth"
	"github.com/srdjan/ns-http-server/pkg/api/handlers"
	"github.com/srdjan/ns-http-server/pkg/config"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the nshttpd server.

This command checks the server health via the admin API and displays
uptime, serving-loop counters, and active transfers.

Examples:
  # Check status (uses default settings)
  nshttpd status

  # Check status with custom admin API port
  nshttpd status --api-port 9091

  # Output as JSON
  nshttpd status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/nshttpd/nshttpd.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 0, "Admin API port (default: from config)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running   bool                     `json:"running" yaml:"running"`
	PID       int                      `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message   string                   `json:"message" yaml:"message"`
	StartedAt string                   `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string                   `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Healthy   bool                     `json:"healthy" yaml:"healthy"`
	Detail    *handlers.StatusResponse `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	// Config supplies the admin API port and auth secret; a load failure
	// only degrades the check, it does not block it.
	apiPort := statusAPIPort
	authSecret := ""
	if cfg, err := config.Load(GetConfigFile()); err == nil {
		if apiPort == 0 {
			apiPort = cfg.API.Port
		}
		authSecret = cfg.API.AuthSecret
	}
	if apiPort == 0 {
		apiPort = 9090
	}

	status := ServerStatus{
		Running: false,
		Healthy: false,
		Message: "Server is not running",
	}

	// Use default PID file if not specified
	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	// Check PID file first
	if pidData, err := os.ReadFile(pidPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(pidData))); err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				// On Unix, FindProcess always succeeds; signal 0 probes liveness
				if process.Signal(syscall.Signal(0)) == nil {
					status.Running = true
					status.PID = pid
				}
			}
		}
	}

	client := &http.Client{Timeout: 2 * time.Second}

	// Health endpoint works for both daemon and foreground mode
	healthURL := fmt.Sprintf("http://localhost:%d/health", apiPort)
	resp, err := client.Get(healthURL)
	if err == nil {
		var healthResp health.Response
		decodeErr := json.NewDecoder(resp.Body).Decode(&healthResp)
		_ = resp.Body.Close()
		if decodeErr == nil {
			status.Running = true
			status.Healthy = healthResp.Healthy()
			status.StartedAt = healthResp.Data.StartedAt
			status.Uptime = healthResp.Data.Uptime
			if status.Healthy {
				status.Message = "Server is running and healthy"
			} else {
				status.Message = fmt.Sprintf("Server is running but unhealthy: %s", healthResp.Error)
			}
		} else {
			status.Running = true
			status.Message = "Server is running but health response invalid"
		}
	} else if status.Running {
		// PID file says running but health check failed
		status.Message = "Server process exists but health check failed"
	}

	// Full status needs the versioned API, which may be behind bearer auth
	if status.Healthy {
		status.Detail = fetchDetail(client, apiPort, authSecret)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		return printStatusTable(status)
	}
}

// fetchDetail queries /api/v1/status, issuing a short-lived token from the
// shared secret when the endpoint is protected. Returns nil on any failure.
func fetchDetail(client *http.Client, apiPort int, authSecret string) *handlers.StatusResponse {
	req, err := http.NewRequest("GET", fmt.Sprintf("http://localhost:%d/api/v1/status", apiPort), nil)
	if err != nil {
		return nil
	}
	if authSecret != "" {
		token, err := auth.NewTokenService(authSecret).IssueToken("cli", time.Minute)
		if err != nil {
			return nil
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var envelope struct {
		Data handlers.StatusResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil
	}
	return &envelope.Data
}

func printStatusTable(status ServerStatus) error {
	fmt.Println()
	fmt.Println("nshttpd Server Status")
	fmt.Println("=====================")
	fmt.Println()

	kv := output.NewKV()
	if status.Running {
		if status.Healthy {
			kv.Add("Status", "\033[32m● Running\033[0m")
		} else {
			kv.Add("Status", "\033[33m● Running (unhealthy)\033[0m")
		}
		if status.PID != 0 {
			kv.Add("PID", strconv.Itoa(status.PID))
		}
		if status.StartedAt != "" {
			kv.Add("Started", timeutil.FormatTime(status.StartedAt))
		}
		if status.Uptime != "" {
			kv.Add("Uptime", timeutil.FormatUptime(status.Uptime))
		}
	} else {
		kv.Add("Status", "\033[31m○ Stopped\033[0m")
	}

	if d := status.Detail; d != nil {
		kv.Add("Version", d.Instance.Version)
		kv.Add("Serving port", strconv.Itoa(d.Port))
		if d.Loop != nil {
			kv.Add("Connections", fmt.Sprintf("%d/%d", d.Loop.Active, d.Loop.Capacity))
			kv.Add("Accepted", strconv.FormatUint(d.Loop.Accepted, 10))
			kv.Add("Requests", strconv.FormatUint(d.Loop.Requests, 10))
			kv.Add("Bytes sent", strconv.FormatUint(d.Loop.BytesSent, 10))
		}
		if d.Process != nil {
			kv.Add("RSS bytes", strconv.FormatUint(d.Process.RSSBytes, 10))
			kv.Add("Open fds", strconv.FormatInt(int64(d.Process.OpenFds), 10))
		}
	}

	if err := kv.Render(os.Stdout); err != nil {
		return err
	}

	// Active transfers, if any
	if d := status.Detail; d != nil && d.Loop != nil && len(d.Loop.Conns) > 0 {
		fmt.Println()
		fmt.Println("Active connections:")
		table := output.NewKV()
		for _, c := range d.Loop.Conns {
			desc := c.State
			if c.Path != "" {
				desc = fmt.Sprintf("%s %s (%d/%d bytes)", c.State, c.Path, c.Position, c.Size)
			}
			table.Add(fmt.Sprintf("#%d %s", c.ID, c.Remote), desc)
		}
		if err := table.Render(os.Stdout); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
	return nil
}
