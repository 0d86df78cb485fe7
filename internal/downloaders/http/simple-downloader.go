package mediahttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
)

// Tracker receives progress for one transfer. Start gets the expected
// size in bytes, or -1 when the server sent no Content-Length.
type Tracker interface {
	Start(total int64)
	Add(n int)
}

type nopTracker struct{}

func (nopTracker) Start(int64) {}
func (nopTracker) Add(int) {}

// PerformSimpleDownload streams url into outputPath through a ".part"
// file that is renamed on success and removed on failure.
func PerformSimpleDownload(ctx context.Context, url, outputPath string, client *utils.LeccapHTTPClient, tracker Tracker) (int64, error) {
	if tracker == nil {
		tracker = nopTracker{}
	}
	tempOutputPath := outputPath + ".part"
	written, err := downloadAttempt(ctx, url, tempOutputPath, client, tracker)
	if err != nil {
		if rmErr := os.Remove(tempOutputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn().Str("op", "http/simple-downloader").Err(rmErr).Msgf("could not remove %s", tempOutputPath)
		}
		return written, err
	}
	if err := os.Rename(tempOutputPath, outputPath); err != nil {
		return written, fmt.Errorf("error renaming (finalizing) output file: %v", err)
	}
	log.Debug().Str("op", "http/simple-downloader").Msgf("download successful for %s (%d bytes)", outputPath, written)
	return written, nil
}

func downloadAttempt(ctx context.Context, url, tempOutputPath string, client *utils.LeccapHTTPClient, tracker Tracker) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating GET request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, transportError(ctx, "error executing GET request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status code %d", utils.ErrTransport, resp.StatusCode)
	}

	total := resp.ContentLength
	log.Debug().Str("op", "http/simple-downloader").Msgf("expecting %d chunks for %s", utils.ExpectedChunks(total), url)
	tracker.Start(total)

	outFile, err := os.OpenFile(tempOutputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %v", err)
	}
	defer outFile.Close()

	var written int64
	buffer := make([]byte, utils.ChunkSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				return written, fmt.Errorf("error writing to output file: %v", writeErr)
			}
			written += int64(bytesRead)
			tracker.Add(bytesRead)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, transportError(ctx, "error reading response body", readErr)
		}
	}
	if err := outFile.Sync(); err != nil {
		return written, fmt.Errorf("error flushing output file: %v", err)
	}
	if err := outFile.Close(); err != nil {
		return written, fmt.Errorf("error closing output file: %v", err)
	}
	return written, nil
}

func transportError(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", msg, ctxErr)
	}
	return fmt.Errorf("%w: %s: %v", utils.ErrTransport, msg, err)
}
