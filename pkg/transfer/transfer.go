// Package transfer fetches the stock feed from the supplier's file server.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/heinrichb/stocksync/pkg/config"
)

// Supported protocols.
const (
	ProtocolFTP  = "ftp"
	ProtocolSFTP = "sftp"
)

// dialTimeout bounds connection setup; transfers themselves are not time-limited.
const dialTimeout = 10 * time.Second

// Source is an open connection to a remote file store.
type Source interface {
	// Exists reports whether a regular file is present at remotePath.
	Exists(remotePath string) (bool, error)
	// Open streams the file at remotePath.
	Open(remotePath string) (io.ReadCloser, error)
	// Close ends the session.
	Close() error
}

// Dial opens a Source for the configured protocol.
func Dial(ctx context.Context, cfg config.TransferConfig) (Source, error) {
	switch cfg.Protocol {
	case ProtocolFTP, "":
		return dialFTP(ctx, cfg)
	case ProtocolSFTP:
		return dialSFTP(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported transfer protocol %q", cfg.Protocol)
	}
}

/*
Fetch copies remotePath from src into localPath, replacing any previous copy.

Returns:
  - true if the file was downloaded.
  - false with a nil error if the remote file does not exist; localPath is left as it was.
  - an error if any step fails. A partial download is removed.
*/
func Fetch(src Source, remotePath, localPath string, logger *zap.Logger) (bool, error) {
	exists, err := src.Exists(remotePath)
	if err != nil {
		return false, fmt.Errorf("failed to check remote file %s: %w", remotePath, err)
	}
	if !exists {
		logger.Warn("The file does not exist on the server.", zap.String("remotePath", remotePath))
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create local dir for %s: %w", localPath, err)
	}

	rf, err := src.Open(remotePath)
	if err != nil {
		return false, fmt.Errorf("open remote %s: %w", remotePath, err)
	}
	defer rf.Close()

	tmp := localPath + ".part"
	lf, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Errorf("create local %s: %w", tmp, err)
	}
	n, err := io.Copy(lf, rf)
	if cerr := lf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("copy %s to %s: %w", remotePath, localPath, err)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("move %s to %s: %w", tmp, localPath, err)
	}

	logger.Info("Feed file downloaded successfully.",
		zap.String("remotePath", remotePath),
		zap.String("localPath", localPath),
		zap.Int64("bytes", n),
	)
	return true, nil
}

// Download dials the configured server and fetches the feed to localPath.
func Download(ctx context.Context, cfg config.TransferConfig, localPath string, logger *zap.Logger) (bool, error) {
	src, err := Dial(ctx, cfg)
	if err != nil {
		return false, err
	}
	defer src.Close()
	logger.Info("Connection established", zap.String("protocol", cfg.Protocol), zap.String("host", cfg.Host))

	return Fetch(src, cfg.RemotePath, localPath, logger)
}
