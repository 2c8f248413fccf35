package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/damacus/iron-files/internal/config"
	"github.com/damacus/iron-files/internal/logger"
)

func main() {
	if err := newCLI(loadApp).Run(os.Args); err != nil {
		log.Error().Err(err).Msg("iron-files failed")
		os.Exit(1)
	}
}

// loadApp reads the process configuration and wires the services
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return newApp(cfg), nil
}

func newCLI(build func() (*app, error)) *cli.App {
	var a *app
	setup := func(c *cli.Context) error {
		if a != nil {
			return nil
		}
		built, err := build()
		if err != nil {
			return err
		}
		a = built
		return nil
	}
	teardown := func(c *cli.Context) error {
		if a != nil {
			a.boards.CloseAll()
		}
		return nil
	}

	return &cli.App{
		Name:   "iron-files",
		Usage:  "Browse and manage the objects of one S3 bucket",
		Before: setup,
		After:  teardown,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Usage:   "HTTP listen port",
				EnvVars: []string{"SERVER_PORT"},
			},
		},
		Action: func(c *cli.Context) error {
			return a.serve(c)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the web file manager (default)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Usage:   "HTTP listen port",
						EnvVars: []string{"SERVER_PORT"},
					},
				},
				Action: func(c *cli.Context) error {
					return a.serve(c)
				},
			},
			{
				Name:      "ls",
				Usage:     "List the folders and files directly under a prefix",
				ArgsUsage: "[prefix]",
				Flags:     bucketFlags(),
				Action: func(c *cli.Context) error {
					return a.list(c)
				},
			},
			{
				Name:      "mkdir",
				Usage:     "Create a folder marker under --prefix",
				ArgsUsage: "<name>",
				Flags: append(bucketFlags(), &cli.StringFlag{
					Name:  "prefix",
					Usage: "Folder to create the new folder in",
				}),
				Action: func(c *cli.Context) error {
					return a.mkdir(c)
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete one object key (folder contents are kept)",
				ArgsUsage: "<key>",
				Flags:     bucketFlags(),
				Action: func(c *cli.Context) error {
					return a.remove(c)
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload local files under --prefix",
				ArgsUsage: "<file>...",
				Flags: append(bucketFlags(), &cli.StringFlag{
					Name:  "prefix",
					Usage: "Folder to upload into",
				}),
				Action: func(c *cli.Context) error {
					return a.upload(c)
				},
			},
		},
	}
}

func bucketFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "access-key",
			Usage:    "Access key id",
			Required: true,
			EnvVars:  []string{"AWS_ACCESS_KEY_ID"},
		},
		&cli.StringFlag{
			Name:     "secret-key",
			Usage:    "Secret access key",
			Required: true,
			EnvVars:  []string{"AWS_SECRET_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "Bucket region",
			Value:   "us-east-1",
			EnvVars: []string{"AWS_REGION", "AWS_DEFAULT_REGION"},
		},
		&cli.StringFlag{
			Name:     "bucket",
			Usage:    "Bucket name",
			Required: true,
			EnvVars:  []string{"S3_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "S3-compatible endpoint URL",
			EnvVars: []string{"S3_ENDPOINT"},
		},
		&cli.BoolFlag{
			Name:    "path-style",
			Usage:   "Use path-style addressing",
			EnvVars: []string{"S3_FORCE_PATH_STYLE"},
		},
	}
}
