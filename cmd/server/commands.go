package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/damacus/iron-files/internal/browser"
	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/transfer"
)

// configFromFlags builds the store configuration of a one-shot command
func configFromFlags(c *cli.Context) services.Configuration {
	return services.Configuration{
		AccessKeyID:     c.String("access-key"),
		SecretAccessKey: c.String("secret-key"),
		Region:          c.String("region"),
		BucketName:      c.String("bucket"),
		Endpoint:        c.String("endpoint"),
		ForcePathStyle:  c.Bool("path-style"),
	}
}

func (a *app) list(c *cli.Context) error {
	prefix := browser.NormalizePrefix(c.Args().First())
	objects, err := a.explorer.List(c.Context, configFromFlags(c), prefix)
	if err != nil {
		return cli.Exit(fmt.Sprintf("list %q: %v", prefix, err), 1)
	}
	printEntries(c.App.Writer, objects)
	return nil
}

func printEntries(w io.Writer, objects []models.ObjectEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, obj := range objects {
		name := obj.Name
		if obj.IsFolder() {
			name += "/"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", obj.FormattedSize(), obj.FormattedDate(), name)
	}
	_ = tw.Flush()
}

func (a *app) mkdir(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("mkdir takes exactly one folder name", 2)
	}
	prefix := browser.NormalizePrefix(c.String("prefix"))
	key, _, err := a.explorer.CreateFolder(c.Context, configFromFlags(c), prefix, c.Args().First())
	if err != nil && key == "" {
		return cli.Exit(fmt.Sprintf("create folder: %v", err), 1)
	}
	fmt.Fprintf(c.App.Writer, "created %s\n", key)
	return nil
}

func (a *app) remove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("rm takes exactly one key", 2)
	}
	key := c.Args().First()
	if err := a.explorer.Delete(c.Context, configFromFlags(c), key); err != nil {
		return cli.Exit(fmt.Sprintf("delete %s: %v", key, err), 1)
	}
	fmt.Fprintf(c.App.Writer, "deleted %s\n", key)
	return nil
}

func (a *app) upload(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("upload needs at least one file", 2)
	}

	files := make([]transfer.File, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		info, err := os.Stat(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("upload: %v", err), 1)
		}
		if info.IsDir() {
			return cli.Exit(fmt.Sprintf("upload: %s is a directory", path), 1)
		}
		files = append(files, transfer.File{
			Name:        filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Size:        info.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(path)
			},
		})
	}

	prefix := browser.NormalizePrefix(c.String("prefix"))
	result := a.orchestrator.Upload(c.Context, configFromFlags(c), prefix, files, nil)
	for _, task := range result.Tasks {
		if task.Status == models.StatusError {
			fmt.Fprintf(c.App.Writer, "failed   %s: %s\n", task.TargetKey, task.Message)
			continue
		}
		fmt.Fprintf(c.App.Writer, "uploaded %s\n", task.TargetKey)
	}

	if !result.Success() {
		if len(result.Tasks) == 0 {
			return cli.Exit(fmt.Sprintf("upload: %v", result.Err), 1)
		}
		return cli.Exit(fmt.Sprintf("%d of %d file(s) failed", result.Failed, len(result.Tasks)), 1)
	}
	return nil
}
