package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"regress/analysis/regression"
	"regress/infra/errorx"
	"regress/infra/observe/log/staticLog"
	"regress/ingest"
	"regress/server"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	// .env 中的变量用于配置文件的 ${ENV} 替换
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "regress",
		Short:         "Multiple linear regression with diagnostics and bootstrap robustness",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "regress v%s\n", version)
		},
	})
	root.AddCommand(newFitCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if vars := errorx.VarsOf(err); len(vars) > 0 {
			fmt.Fprintf(os.Stderr, "variables: %v\n", vars)
		}
		os.Exit(1)
	}
}

// loadEngine 读取引擎配置并初始化日志; path 为空时使用默认值
func loadEngine(path string) (regression.EngineConfig, io.Closer, error) {
	engine := regression.DefaultEngineConfig()
	if path != "" {
		if err := regression.Init(path); err != nil {
			return engine, nil, err
		}
		engine = regression.Current()
	}
	closer, err := staticLog.Init(engine.Log)
	if err != nil {
		return engine, nil, err
	}
	return engine, closer, nil
}

func newFitCmd() *cobra.Command {
	var (
		dataPath   string
		runPath    string
		enginePath string
		format     string
		summary    bool
		seed       int64
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a regression on a CSV or JSON data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closer, err := loadEngine(enginePath)
			if err != nil {
				return err
			}
			defer closer.Close()

			cfg, err := regression.LoadRunConfig(runPath)
			if err != nil {
				return err
			}
			table, err := ingest.ReadFile(dataPath)
			if err != nil {
				return err
			}

			opts := []regression.Option{regression.WithEngineConfig(engine)}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, regression.WithSeed(seed))
			}
			res, err := regression.Run(table.Rows, *cfg, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				if summary {
					s := regression.Summarize(res)
					fmt.Fprintf(out, "%s\nR2=%.4f adjR2=%.4f RMSE=%.4f n=%d\n", s.Equation, s.R2, s.AdjustedR2, s.RMSE, s.Observations)
					return nil
				}
				return regression.WriteText(out, res)
			case "json":
				var v any = server.NewResultDTO(res)
				if summary {
					v = server.NewSummaryDTO(regression.Summarize(res))
				}
				b, err := gojson.MarshalIndent(v, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			default:
				return fmt.Errorf("unknown format %q, expected json or text", format)
			}
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "data file (.csv or .json)")
	cmd.Flags().StringVar(&runPath, "run", "", "run configuration YAML (target and features)")
	cmd.Flags().StringVar(&enginePath, "engine", "", "engine configuration YAML")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or text")
	cmd.Flags().BoolVar(&summary, "summary", false, "print only the summary")
	cmd.Flags().Int64Var(&seed, "seed", 0, "bootstrap seed (default: derived from the data)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		enginePath string
		addr       string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closer, err := loadEngine(enginePath)
			if err != nil {
				return err
			}
			defer closer.Close()
			if addr != "" {
				engine.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(engine).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&enginePath, "engine", "", "engine configuration YAML")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
