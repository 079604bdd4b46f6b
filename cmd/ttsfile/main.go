// Command ttsfile generates a telephony-ready WAV file from text,
// without a live call: synthesize, transcode, copy to the requested
// output, and clean up the intermediates.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/voztel/ttsgate/pkg/logging"
	"github.com/voztel/ttsgate/pkg/pipeline"
	"github.com/voztel/ttsgate/pkg/synth"
	"github.com/voztel/ttsgate/pkg/synth/edge"
	"github.com/voztel/ttsgate/pkg/tempfiles"
	"github.com/voztel/ttsgate/pkg/transcode"
)

func main() {
	text := flag.String("text", "", "text to convert to audio (required)")
	output := flag.String("output", "", "output file (required)")
	lang := flag.String("lang", synth.DefaultLanguage, "language (es, en, fr, pt, de)")
	rate := flag.Int("rate", transcode.DefaultSampleRate, "sample rate in Hz")
	flag.Parse()

	if *text == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: ttsfile --text <text> --output <file> [--lang es] [--rate 8000]")
		os.Exit(1)
	}

	logging.Setup("info", "text")
	if err := run(*text, *output, *lang, *rate); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(text, output, lang string, rate int) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}

	dir := tempfiles.NewDir("")
	if err := dir.Init(); err != nil {
		return err
	}

	pipe := pipeline.New(dir, edge.New(edge.Config{}), transcode.NewSox(), rate, nil)
	tracker := tempfiles.NewTracker(nil)
	// Intermediates are deleted whatever happens; only the copied
	// output survives.
	defer tracker.ReleaseAll()

	artifacts, err := pipe.Run(context.Background(), uuid.NewString(), tracker, text, lang)
	if err != nil {
		return err
	}
	converted := artifacts[len(artifacts)-1].Path
	if err := copyFile(converted, output); err != nil {
		return err
	}
	fmt.Println("audio file generated:", output)
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
