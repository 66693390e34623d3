/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/seashell-io/seashell/notify"
	"github.com/seashell-io/seashell/pipeline"
	"github.com/seashell-io/seashell/site"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CLI is the command line interface.
type CLI struct {
	root *cobra.Command
	out  io.Writer

	configFile string
	debug      bool

	cfg    *Config
	logger *zap.Logger
}

// NewCLI makes the command tree.  Evaluation output goes to out.
func NewCLI(out io.Writer) *CLI {
	c := &CLI{
		out: out,
	}
	c.root = &cobra.Command{
		Use:               "seashell",
		Short:             "Evaluates pages with embedded server-side code",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	c.root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "seashell.yaml", "configuration file")
	c.root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false, "debug logging")

	c.root.AddCommand(c.newServeCmd())
	c.root.AddCommand(c.newEvalCmd())
	c.root.AddCommand(c.newCacheCmd())
	return c
}

// Execute runs the command given by the arguments.
func (c *CLI) Execute(ctx context.Context) error {
	c.root.SetContext(ctx)
	return c.root.Execute()
}

// SetArgs sets the arguments.  Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.root.SetArgs(args)
}

func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	zc := zap.NewProductionConfig()
	if c.debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return zerr.Wrap(err, "logger failed")
	}
	c.logger = logger

	if c.cfg, err = LoadConfig(c.configFile); err != nil {
		return err
	}
	return nil
}

// open makes the sites, the cache and the pipeline.  The closer
// releases the cache.
func (c *CLI) open(opts ...pipeline.Option) (*site.Sites, *pipeline.Pipeline, func() error, error) {
	sites, err := site.FromConfigs(c.cfg.Sites)
	if err != nil {
		return nil, nil, nil, err
	}
	store, closer, err := c.cfg.Store(c.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(c.cfg.Options(store, c.logger), opts...)
	return sites, pipeline.Standard(opts...), closer, nil
}

func (c *CLI) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured sites over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *CLI) serve(ctx context.Context) error {
	defer c.logger.Sync()

	var (
		opts   []pipeline.Option
		mq     *notify.MQTT
		events *notify.Firehose
	)
	if c.cfg.MQTT != nil && c.cfg.MQTT.Broker != "" {
		mq = notify.NewMQTT(*c.cfg.MQTT, c.logger)
		opts = append(opts, pipeline.WithListener(mq))
	}
	if c.cfg.Events {
		events = notify.NewFirehose(c.logger)
		opts = append(opts, pipeline.WithListener(events))
	}

	sites, p, closer, err := c.open(opts...)
	if err != nil {
		return err
	}
	defer closer()

	var watcher *Watcher
	if c.cfg.Cache.Watch {
		if watcher, err = NewWatcher(sites, p.Cache(), c.logger); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if mq != nil {
		g.Go(func() error {
			// The pages still work without the broker.
			if err := mq.Run(ctx); err != nil {
				c.logger.Error("mqtt stopped", zap.Error(err))
			}
			return nil
		})
	}
	var handler http.Handler
	if events != nil {
		handler = events
		g.Go(func() error {
			return events.Run(ctx)
		})
	}

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}
	if c.cfg.Cache.Purge != "" {
		purger := &Purger{
			Schedule: cronexpr.MustParse(c.cfg.Cache.Purge),
			Sites:    sites,
			Store:    p.Cache(),
			Logger:   c.logger,
		}
		g.Go(func() error {
			return purger.Run(ctx)
		})
	}

	s := &Server{
		Pipeline: p,
		Sites:    sites,
		Logger:   c.logger,
		Timeout:  c.cfg.Timeout,
	}
	server := &http.Server{
		Addr:    c.cfg.Listen,
		Handler: s.Handler(handler),
	}
	g.Go(func() error {
		c.logger.Info("listening", zap.String("addr", c.cfg.Listen))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		c.logger.Info("shutting down")
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}

func (c *CLI) newEvalCmd() *cobra.Command {
	var siteID string
	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Evaluate a file and write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.eval(cmd.Context(), siteID, args[0])
		},
	}
	cmd.Flags().StringVarP(&siteID, "site", "s", "", "site ID (default: the site containing FILE, else the default site)")
	return cmd
}

func (c *CLI) eval(ctx context.Context, siteID, filename string) error {
	sites, p, closer, err := c.open()
	if err != nil {
		return err
	}
	defer closer()

	filename, err = filepath.Abs(filename)
	if err != nil {
		return err
	}

	var s *site.Site
	switch {
	case siteID != "":
		if s = sites.Get(siteID); s == nil {
			return zerr.With(zerr.Wrap(site.ErrBadConfig, "unknown site"), "site", siteID)
		}
	default:
		if s = sites.Owner(filename); s == nil {
			s = sites.Default()
		}
	}

	out, err := p.EvalFile(ctx, filename, s, nil)
	if err != nil {
		return err
	}
	_, err = c.out.Write(out)
	return err
}

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove every site's cached results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, p, closer, err := c.open()
			if err != nil {
				return err
			}
			defer closer()
			return PurgeAll(cmd.Context(), sites, p.Cache(), c.logger)
		},
	})
	return cmd
}
