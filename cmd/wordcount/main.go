// Command wordcount runs the word-count graph (algorithms.WordCount)
// over an NDJSON file, writing NDJSON results to stdout.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/rowkit/compgraph/algorithms"
	"github.com/rowkit/compgraph/ndjson"
	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/row"
)

func main() {
	cmd := &cli.Command{
		Name:  "wordcount",
		Usage: "count word occurrences in an NDJSON text stream",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Required: true, Usage: "path to an NDJSON file with a text column"},
			&cli.StringFlag{Name: "text-column", Value: "text"},
			&cli.StringFlag{Name: "count-column", Value: "count"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Fatal("wordcount failed")
	}
}

const inputName = "texts"

func run(ctx context.Context, cmd *cli.Command) error {
	g := algorithms.WordCount(inputName, cmd.String("text-column"), cmd.String("count-column"))

	inputs := map[string]ops.InputFactory{
		inputName: fileSource(cmd.String("input")),
	}

	it, err := g.Run(ctx, inputs)
	if err != nil {
		return err
	}
	defer it.Close()

	return ndjson.Writer(os.Stdout, it)
}

// fileSource adapts an NDJSON file on disk to an ops.InputFactory.
func fileSource(path string) ops.InputFactory {
	return func() row.Iter {
		return (&ops.Read{Filename: path, Parser: ndjson.Parser}).Run()
	}
}
