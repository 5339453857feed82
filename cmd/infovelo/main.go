package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rock-n-Donuts/infovelo-web/internal/logging"
	"github.com/Rock-n-Donuts/infovelo-web/internal/server"
)

// Options defines all CLI flags and env vars for the infovelo server.
// Flags: --host, --port, --data-dir, --web-dir, --dev, --tile-provider,
// --tile-token, --seed, --log-level, --log-format
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8090"`
	DataDir      string `doc:"Directory for data files" default:".data"`
	WebDir       string `doc:"Path to web/ directory" default:"web"`
	Dev          bool   `doc:"Serve base imagery from the public OSM tile servers"`
	TileProvider string `doc:"Base imagery provider map ID"`
	TileToken    string `doc:"Base imagery provider access token"`
	Seed         string `doc:"YAML segment inventory to load at startup"`
	LogLevel     string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogFormat    string `doc:"Log format: text or json" default:"text"`
}

func newServer(opts *Options) (*server.Server, error) {
	return server.New(server.Config{
		Host:           opts.Host,
		Port:           fmt.Sprintf("%d", opts.Port),
		DataDir:        opts.DataDir,
		WebDir:         opts.WebDir,
		Dev:            opts.Dev,
		TileProviderID: opts.TileProvider,
		TileToken:      opts.TileToken,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logging.Setup(opts.LogLevel, opts.LogFormat)

		srv, err := newServer(opts)
		if err != nil {
			slog.Error("startup failed", "err", err)
			os.Exit(1)
		}

		if opts.Seed != "" {
			added, err := srv.Seed(opts.Seed)
			if err != nil {
				slog.Error("seed failed", "file", opts.Seed, "err", err)
				os.Exit(1)
			}
			slog.Info("segments seeded", "file", opts.Seed, "added", added)
		}

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			slog.Info("infovelo server starting",
				"addr", addr,
				"data_dir", opts.DataDir,
				"dev", opts.Dev,
			)
			if err := http.ListenAndServe(addr, srv); err != nil {
				slog.Error("server error", "err", err)
				os.Exit(1)
			}
		})
		hooks.OnStop(func() {
			srv.Close()
		})
	})

	cli.Root().Use = "infovelo"
	cli.Root().Short = "Citizen-reported winter cycling conditions"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
				os.Exit(1)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Run()
}
