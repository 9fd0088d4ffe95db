package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pagelift/pagelift/internal/api"
	"github.com/pagelift/pagelift/internal/audit"
	"github.com/pagelift/pagelift/internal/llm"
	"github.com/pagelift/pagelift/internal/vcs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server exposing the audit, generation, planning,
and review-session endpoints. By default it listens on port 8080.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

		srv, err := api.NewServer(s, vcs.NewGHClient(), llmClientFromConfig(), api.Config{
			SessionTTL:  sessionTTLFromConfig(),
			GitHubToken: viper.GetString("github.token"),
			Audit:       auditOptionsFromConfig(),
		})
		if err != nil {
			return fmt.Errorf("initialize API server: %w", err)
		}

		addr := fmt.Sprintf(":%d", viper.GetInt("server.port"))
		ui.Info("Serving API at http://localhost%s", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

// llmClientFromConfig returns a client when an API key is configured, nil
// otherwise. The pipeline works without one.
func llmClientFromConfig() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"))
}

func sessionTTLFromConfig() time.Duration {
	return time.Duration(viper.GetInt("review.ttl_hours")) * time.Hour
}

func auditOptionsFromConfig() audit.Options {
	return audit.Options{
		Include: viper.GetStringSlice("audit.include"),
		Exclude: viper.GetStringSlice("audit.exclude"),
	}
}
