package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	vidbatch "github.com/swdee/go-vidbatch"
	"github.com/swdee/go-vidbatch/codec"
	"github.com/swdee/go-vidbatch/codec/opencv"
)

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	parser := argparse.NewParser("vidbatch", "Iterate video detection batches and report anchor statistics")
	annotations := parser.String("a", "annotations", &argparse.Options{Help: "YAML annotation file", Required: true})
	labelFile := parser.String("l", "labels", &argparse.Options{Help: "Class labels file, one per line", Required: true})
	root := parser.String("r", "root", &argparse.Options{Help: "Directory image paths are relative to", Default: ""})
	configFile := parser.String("c", "config", &argparse.Options{Help: "YAML loader config file", Default: ""})
	mode := parser.Selector("m", "mode", []string{"train", "test"}, &argparse.Options{Help: "Iterate training or inference batches", Default: "train"})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Override the configured worker count", Default: 0})
	epochs := parser.Int("e", "epochs", &argparse.Options{Help: "Number of training epochs", Default: 1})
	native := parser.Flag("", "native", &argparse.Options{Help: "Decode with the pure Go codec instead of OpenCV"})
	dump := parser.String("", "shuffle-dump", &argparse.Options{Help: "Write the dataset index to this file after every shuffle", Default: ""})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)
	defer logger.Close()

	cfg := vidbatch.DefaultConfig()

	if *configFile != "" {
		cfg, err = vidbatch.LoadConfig(*configFile)
		check(err)
	}

	if *workers > 0 {
		cfg.Workers = *workers
		cfg.WorkLoad = nil
	}

	store := vidbatch.FileStore{
		AnnotationFile: *annotations,
		LabelFile:      *labelFile,
		Root:           *root,
	}

	records, err := store.Records()
	check(err)

	logger.Infof("Loaded %d records", len(records))

	dec, closer, err := newCodec(cfg, *native)
	check(err)
	defer closer()

	switch *mode {
	case "train":
		check(runTrain(logger, records, cfg, dec, *epochs, *dump))
	case "test":
		check(runTest(logger, records, cfg, dec))
	}
}

// newCodec returns the frame decoder and its release function
func newCodec(cfg vidbatch.Config, native bool) (vidbatch.ImageCodec, func(), error) {

	if native {
		n, err := codec.NewNative(cfg.Scale, cfg.PixelMeans)
		return n, func() {}, err
	}

	c, err := opencv.NewCodec(cfg.Scale, cfg.PixelMeans)

	if err != nil {
		return nil, nil, err
	}

	return c, func() { c.Close() }, nil
}

// runTrain iterates every training batch and logs anchor label counts
func runTrain(log logs.Log, records []vidbatch.VideoRecord, cfg vidbatch.Config,
	dec vidbatch.ImageCodec, epochs int, dump string) error {

	oracle := vidbatch.StrideOracle{Stride: cfg.Anchor.FeatStride}

	loader, err := vidbatch.NewAnchorLoader(records, cfg, dec, oracle, nil, log)

	if err != nil {
		return err
	}

	if dump != "" {
		loader.SetShuffleObserver(dumpIndex(log, dump))
	}

	for epoch := 0; epoch < epochs; epoch++ {
		if epoch > 0 {
			loader.Reset()
		}

		var pos, neg int

		for loader.HasNext() {
			batch, err := loader.Next()

			if err != nil {
				return err
			}

			p, n := countLabels(batch)
			pos += p
			neg += n

			log.Debugf("Epoch %d batch %d: %d positive, %d negative anchors",
				epoch, batch.Index, p, n)
		}

		// the loop above stops on HasNext, confirm the iterator agrees
		if _, err := loader.Next(); !errors.Is(err, vidbatch.ErrEndOfEpoch) {
			return fmt.Errorf("expected end of epoch, got %v", err)
		}

		log.Infof("Epoch %d done: %d positive, %d negative anchors", epoch, pos, neg)
	}

	return nil
}

// runTest walks every frame of every sequence, split across workers by
// sequence length, and logs the key frame flags
func runTest(log logs.Log, records []vidbatch.VideoRecord, cfg vidbatch.Config,
	dec vidbatch.ImageCodec) error {

	shards, err := vidbatch.SplitBySegmentLength(sequences(records), cfg.Workers)

	if err != nil {
		return err
	}

	for w, shard := range shards {
		loader, err := vidbatch.NewTestLoader(shard, 1, dec, log)

		if err != nil {
			return err
		}

		log.Infof("Worker %d: %d sequences, %d frames", w, len(shard), loader.Size())

		var newSeq int

		for loader.HasNext() {
			batch, err := loader.Next()

			if err != nil {
				return err
			}

			if batch.KeyFrameFlag == vidbatch.KeyFrameNew {
				newSeq++
			}

			if batch.Transition {
				log.Debugf("Worker %d frame %d: %s", w, batch.Index, loader.Flag())
			}
		}

		log.Infof("Worker %d done: %d sequences started", w, newSeq)
	}

	return nil
}

// sequences reduces frame records to one record per sequence
func sequences(records []vidbatch.VideoRecord) []vidbatch.VideoRecord {

	seen := make(map[string]bool)
	var out []vidbatch.VideoRecord

	for _, r := range records {
		key := r.SequenceKey()

		if seen[key] {
			continue
		}

		seen[key] = true
		r.FrameSegID = 0
		out = append(out, r)
	}

	return out
}

// countLabels returns the number of positive and negative anchors of a batch
func countLabels(batch *vidbatch.Batch) (pos, neg int) {

	for _, v := range vidbatch.Float32s(batch.Label[vidbatch.FieldLabel]) {
		switch v {
		case 1:
			pos++
		case 0:
			neg++
		}
	}

	return pos, neg
}

// dumpIndex returns a shuffle observer writing the shuffled index to path,
// one record index per line
func dumpIndex(log logs.Log, path string) vidbatch.ShuffleObserver {
	return func(before, after vidbatch.DatasetIndex) {

		f, err := os.Create(path)

		if err != nil {
			log.Warnf("Error creating shuffle dump: %v", err)
			return
		}

		defer f.Close()

		w := bufio.NewWriter(f)

		for _, i := range after {
			fmt.Fprintln(w, i)
		}

		if err := w.Flush(); err != nil {
			log.Warnf("Error writing shuffle dump: %v", err)
		}
	}
}
