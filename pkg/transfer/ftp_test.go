package transfer

import (
	"errors"
	"net/textproto"
	"testing"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFTP answers SIZE and NLST from fixed replies.
type fakeFTP struct {
	sizeErr  error
	names    map[string][]string
	listErr  error
	listDirs []string
}

func (f *fakeFTP) FileSize(string) (int64, error) {
	if f.sizeErr != nil {
		return 0, f.sizeErr
	}
	return 42, nil
}

func (f *fakeFTP) NameList(dir string) ([]string, error) {
	f.listDirs = append(f.listDirs, dir)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.names[dir], nil
}

func (f *fakeFTP) Retr(string) (*ftp.Response, error) { return nil, errors.New("not implemented") }
func (f *fakeFTP) Quit() error { return nil }

func TestFTPExists(t *testing.T) {
	notImplemented := &textproto.Error{Code: ftp.StatusNotImplemented, Msg: "SIZE not understood"}

	tests := []struct {
		name     string
		conn     *fakeFTP
		want     bool
		wantErr  bool
		wantList bool
	}{
		{name: "size succeeds", conn: &fakeFTP{}, want: true},
		{
			name: "550 means absent",
			conn: &fakeFTP{sizeErr: &textproto.Error{Code: ftp.StatusFileUnavailable, Msg: "No such file"}},
			want: false,
		},
		{
			name:     "SIZE unsupported, file listed",
			conn:     &fakeFTP{sizeErr: notImplemented, names: map[string][]string{"/in": {"Other.txt", "/in/Stock.txt"}}},
			want:     true,
			wantList: true,
		},
		{
			name:     "SIZE unsupported, file not listed",
			conn:     &fakeFTP{sizeErr: notImplemented, names: map[string][]string{"/in": {"Other.txt"}}},
			want:     false,
			wantList: true,
		},
		{
			name:     "SIZE unsupported, directory missing",
			conn:     &fakeFTP{sizeErr: notImplemented, listErr: &textproto.Error{Code: ftp.StatusFileUnavailable}},
			want:     false,
			wantList: true,
		},
		{
			name:     "SIZE unsupported, listing fails",
			conn:     &fakeFTP{sizeErr: notImplemented, listErr: errors.New("data connection refused")},
			wantErr:  true,
			wantList: true,
		},
		{
			name:    "connection error is not a listing cue",
			conn:    &fakeFTP{sizeErr: errors.New("broken pipe")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &ftpSource{conn: tt.conn}
			got, err := src.Exists("/in/Stock.txt")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			if tt.wantList {
				assert.Equal(t, []string{"/in"}, tt.conn.listDirs)
			} else {
				assert.Empty(t, tt.conn.listDirs)
			}
		})
	}
}
