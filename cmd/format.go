package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/render"
	"github.com/desertthunder/cwlog/internal/shared"
	"github.com/desertthunder/cwlog/internal/source"
	"github.com/urfave/cli/v3"
)

// Format renders a captured log one-shot, replaying it through the formatter
// in chunks and writing one rendered line per block.
func (r *Runner) Format(ctx context.Context, cmd *cli.Command) error {
	mode := cmd.String("mode")
	if mode != "term" && mode != "html" && mode != "raw" {
		return fmt.Errorf("%w: mode must be term, html or raw", shared.ErrInvalidFlag)
	}

	var src source.Source
	if path := cmd.String("input"); path != "" {
		fileSrc, err := source.NewFileSource(path, int(cmd.Int("chunk-size")))
		if err != nil {
			return err
		}
		defer fileSrc.Close()
		src = fileSrc
	} else {
		src = source.NewReaderSource(os.Stdin, int(cmd.Int("chunk-size")))
	}

	session := formatter.NewSession(r.formatterOptions(cmd.Bool("debug") || mode == "raw"))
	palette := render.DefaultPalette()

	emit := func(blocks []formatter.Block) error {
		for _, block := range blocks {
			var text string
			switch mode {
			case "html":
				text = render.HTML(block)
			case "raw":
				text = block.Text
			default:
				text = palette.Term(block)
			}
			if err := r.writePlain("%s\n", text); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		chunk, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := emit(session.Feed(chunk)); err != nil {
			return err
		}
	}

	return emit(session.Flush())
}
