package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path"

	"github.com/jlaffaye/ftp"

	"github.com/heinrichb/stocksync/pkg/config"
)

// ftpConn is the part of *ftp.ServerConn an ftpSource uses.
type ftpConn interface {
	FileSize(path string) (int64, error)
	NameList(path string) ([]string, error)
	Retr(path string) (*ftp.Response, error)
	Quit() error
}

// ftpSource reads files over plain FTP with user/password login.
type ftpSource struct {
	conn ftpConn
}

func dialFTP(ctx context.Context, cfg config.TransferConfig) (*ftpSource, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := ftp.Dial(addr,
		ftp.DialWithTimeout(dialTimeout),
		ftp.DialWithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial FTP %s: %w", addr, err)
	}
	if err := conn.Login(cfg.Username, cfg.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to log in to FTP %s: %w", addr, err)
	}
	return &ftpSource{conn: conn}, nil
}

/*
Exists asks the server for the file size. A 550 reply means there is no such
file. Servers that reject SIZE itself are asked for a listing of the parent
directory instead.
*/
func (s *ftpSource) Exists(remotePath string) (bool, error) {
	_, err := s.conn.FileSize(remotePath)
	if err == nil {
		return true, nil
	}

	var protoErr *textproto.Error
	if !errors.As(err, &protoErr) {
		return false, err
	}
	if protoErr.Code == ftp.StatusFileUnavailable {
		return false, nil
	}
	return s.listed(remotePath)
}

// listed reports whether remotePath appears in its directory's name list.
func (s *ftpSource) listed(remotePath string) (bool, error) {
	names, err := s.conn.NameList(path.Dir(remotePath))
	if err != nil {
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable {
			return false, nil
		}
		return false, fmt.Errorf("failed to list %s: %w", path.Dir(remotePath), err)
	}

	want := path.Base(remotePath)
	for _, name := range names {
		if path.Base(name) == want {
			return true, nil
		}
	}
	return false, nil
}

func (s *ftpSource) Open(remotePath string) (io.ReadCloser, error) {
	resp, err := s.conn.Retr(remotePath)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *ftpSource) Close() error {
	return s.conn.Quit()
}
