// Command mapsspeed runs the Yandex-Maps-style average speed graph
// (algorithms.AverageSpeed) over two NDJSON files — edge traversal
// times and edge lengths — writing NDJSON results to stdout.
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
		Name:  "mapsspeed",
		Usage: "compute average travel speed by weekday and hour",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "travel-times", Required: true, Usage: "NDJSON file of edge enter/leave times"},
			&cli.StringFlag{Name: "edge-lengths", Required: true, Usage: "NDJSON file of edge start/end coordinates"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Fatal("mapsspeed failed")
	}
}

const (
	timeInputName   = "travel_times"
	lengthInputName = "edge_lengths"
)

func run(ctx context.Context, cmd *cli.Command) error {
	g := algorithms.AverageSpeed(
		timeInputName, lengthInputName,
		"enter_time", "leave_time", "edge_id", "start", "end",
		"weekday", "hour", "speed",
	)

	inputs := map[string]ops.InputFactory{
		timeInputName:   fileSource(cmd.String("travel-times")),
		lengthInputName: fileSource(cmd.String("edge-lengths")),
	}

	it, err := g.Run(ctx, inputs)
	if err != nil {
		return err
	}
	defer it.Close()

	return ndjson.Writer(os.Stdout, it)
}

func fileSource(path string) ops.InputFactory {
	return func() row.Iter {
		return (&ops.Read{Filename: path, Parser: coordParser}).Run()
	}
}

// coordParser decodes an NDJSON line the same way ndjson.Parser does,
// except it additionally folds any [lng, lat]-shaped array field into a
// mappers.Point, since the haversine mapper expects coordinate columns
// already typed that way rather than as raw JSON arrays.
func coordParser(line string) (row.Row, error) {
	return ndjson.ParserWithPoints(line, "start", "end")
}
