package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// RemoteFile is a ledger file available for download.
type RemoteFile struct {
	ID   string
	Name string
	Size int64
}

// FileSource lists and downloads ledger files from a remote folder.
type FileSource interface {
	ListFiles(ctx context.Context, folder string) ([]RemoteFile, error)
	DownloadFile(ctx context.Context, id string, w io.Writer) error
}

type DriveSource struct {
	srv *drive.Service
}

// NewDriveSource authenticates with a service account credentials JSON.
func NewDriveSource(ctx context.Context, credentialsJSON string) (*DriveSource, error) {
	config, err := google.JWTConfigFromJSON([]byte(credentialsJSON), drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}
	return &DriveSource{srv: srv}, nil
}

func (s *DriveSource) ListFiles(ctx context.Context, folderID string) ([]RemoteFile, error) {
	if folderID == "" {
		folderID = "root"
	}

	var files []RemoteFile
	err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", folderID)).
		Fields("nextPageToken, files(id, name, size)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, RemoteFile{ID: f.Id, Name: f.Name, Size: f.Size})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}
	return files, nil
}

func (s *DriveSource) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("unable to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// ObjectSource reads ledger files from an S3 prefix.
type ObjectSource struct {
	objects storage.ObjectStorage
}

func NewObjectSource(objects storage.ObjectStorage) *ObjectSource {
	return &ObjectSource{objects: objects}
}

func (s *ObjectSource) ListFiles(ctx context.Context, prefix string) ([]RemoteFile, error) {
	infos, err := s.objects.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	files := make([]RemoteFile, len(infos))
	for i, info := range infos {
		files[i] = RemoteFile{ID: info.Key, Name: filepath.Base(info.Key), Size: info.Size}
	}
	return files, nil
}

func (s *ObjectSource) DownloadFile(ctx context.Context, key string, w io.Writer) error {
	data, err := s.objects.GetObject(ctx, key)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Downloader copies the CSV and XLSX files of a remote folder into a local
// directory.
type Downloader struct {
	source FileSource
}

func NewDownloader(source FileSource) *Downloader {
	return &Downloader{source: source}
}

// DownloadFolder returns the local paths of the downloaded ledger files.
// Other file types are ignored.
func (d *Downloader) DownloadFolder(ctx context.Context, folder, downloadDir string) ([]string, error) {
	if downloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.source.ListFiles(ctx, folder)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		localPath := filepath.Join(downloadDir, filepath.Base(f.Name))
		if err := d.download(ctx, f, localPath); err != nil {
			return nil, err
		}
		log.Debug().Str("file", f.Name).Str("path", localPath).Msg("downloaded sales file")
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func (d *Downloader) download(ctx context.Context, f RemoteFile, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.source.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}

var (
	_ FileSource = (*DriveSource)(nil)
	_ FileSource = (*ObjectSource)(nil)
)
