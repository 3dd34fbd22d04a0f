package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"NatalChart/internal/di"
	"NatalChart/internal/domain/models"
	"NatalChart/internal/handler/api"
	"NatalChart/internal/usecase"
	"NatalChart/pkg/config"
	xhttp "NatalChart/pkg/http"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "natal",
		Short:         "Natal chart engine and service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), chartCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and Kafka chart service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")
	return cmd
}

func chartCmd() *cobra.Command {
	var (
		req        models.ChartRequest
		lat, lon   float64
		nodes      bool
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Compute one chart and print it as JSON",
		Example: `  natal chart --date 05/02/1993 --time 15:30 --tz Europe/Madrid --lat 41.6561 --lon -0.8773
  natal chart --instant 1993-02-05T14:30:00Z --lat 41.6561 --lon -0.8773 --house-system equal --lang es`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			cfg.Log.Output = "stderr"
			cfg.Log.Level = "warn"

			flags := cmd.Flags()
			if flags.Changed("lat") {
				req.Latitude = &lat
			}
			if flags.Changed("lon") {
				req.Longitude = &lon
			}
			if flags.Changed("nodes") {
				req.IncludeNodes = &nodes
			}
			if verr := xhttp.ValidateStruct(cmd.Context(), &req); verr != nil {
				b, _ := json.Marshal(verr)
				return fmt.Errorf("invalid request: %s", b)
			}

			svc, err := di.InitializeChartService(cfg)
			if err != nil {
				return err
			}
			return printChart(cmd.Context(), cmd, svc, &req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Instant, "instant", "", "UTC or offset instant, RFC 3339")
	f.StringVar(&req.Date, "date", "", "civil date, DD/MM/YYYY")
	f.StringVar(&req.Time, "time", "", "civil time, HH:MM")
	f.StringVar(&req.Timezone, "tz", "", "IANA time zone of --date and --time")
	f.Float64Var(&lat, "lat", 0, "geographic latitude, north positive")
	f.Float64Var(&lon, "lon", 0, "geographic longitude, east positive")
	f.StringVar(&req.HouseSystem, "house-system", "", "placidus, equal, whole_sign or porphyry")
	f.BoolVar(&nodes, "nodes", false, "include the lunar nodes")
	f.StringVar(&req.Lang, "lang", "", "display language, en or es")
	f.StringVar(&req.Name, "name", "", "label echoed in the output")
	f.StringVar(&req.Location, "location", "", "place label echoed in the output")
	f.StringVarP(&configPath, "config", "c", "", "optional config file for chart defaults")
	return cmd
}

func printChart(ctx context.Context, cmd *cobra.Command, svc *usecase.ChartService, req *models.ChartRequest) error {
	in, opts, err := usecase.ResolveRequest(req, svc.Defaults())
	if err != nil {
		return err
	}
	chart, err := svc.Compute(ctx, in, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(api.PresentChart(chart, models.Locale(req.Lang), api.LabelsFor(*req)))
}
