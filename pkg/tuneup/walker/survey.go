package walker

import (
	"context"
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/tuneup/pkg/tuneup/types"
)

// SurveyResult is a cheap pre-walk estimate of the work ahead: how many
// recognized audio files the tree holds and how many bytes they total.
// The progress reporter uses it to show percentages.
type SurveyResult struct {
	AudioFiles int64 `json:"audio_files"`
	TotalBytes int64 `json:"total_bytes"`
}

// Survey walks the tree with fastwalk, counting audio files and bytes
// without hashing anything. Errors on individual entries are ignored; the
// estimate only needs to be approximately right.
func Survey(ctx context.Context, root string, exclude []string) (SurveyResult, error) {
	var files, bytes atomic.Int64

	conf := fastwalk.Config{
		Follow: false,
	}

	excluder := &Walker{opts: Options{Exclude: exclude}}

	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil
		}
		if excluder.isExcluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !types.IsAudioFile(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		files.Add(1)
		bytes.Add(info.Size())
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		return SurveyResult{}, err
	}

	return SurveyResult{
		AudioFiles: files.Load(),
		TotalBytes: bytes.Load(),
	}, nil
}
