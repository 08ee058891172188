// Package archive copies tagged images to an S3 compatible bucket.
package archive

import (
	"context"
	"fmt"
	"github.com/gofrs/uuid"
	"github.com/minio/minio-go/v7"
	"log/slog"
	"path"
	"path/filepath"
	"photo-geotag/geotag"
	"strings"
)

type MinIO interface {
	FPutObject(ctx context.Context, bucketName, objectName string, filePath string, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
}

type Uploader struct {
	mc     MinIO
	bucket string
	prefix string
	logger *slog.Logger
}

func NewUploader(mc MinIO, bucket, prefix string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{mc: mc, bucket: bucket, prefix: prefix, logger: logger}
}

type Upload struct {
	Position int    `json:"position"`
	FilePath string `json:"file_path"`
	Key      string `json:"key,omitempty"`
	Err      error  `json:"-"`
}

// ObjectKey is where the file at position i of a batch is stored. The
// position keeps equal basenames from different directories apart.
func (u *Uploader) ObjectKey(batchID uuid.UUID, i int, filePath string) string {
	return path.Join(u.prefix, batchID.String(), fmt.Sprintf("%d-%s", i, filepath.Base(filePath)))
}

func contentType(filePath string) string {
	if strings.EqualFold(filepath.Ext(filePath), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}

// Upload stores every successfully tagged file of a batch. Failed uploads are
// reported per file and do not stop the rest.
func (u *Uploader) Upload(ctx context.Context, batchID uuid.UUID, results []geotag.WriteResult) []Upload {
	var uploads []Upload
	for i, res := range results {
		if !res.Success {
			continue
		}

		key := u.ObjectKey(batchID, i, res.FilePath)
		_, err := u.mc.FPutObject(ctx, u.bucket, key, res.FilePath, minio.PutObjectOptions{
			ContentType: contentType(res.FilePath),
		})
		if err != nil {
			u.logger.Warn("archive upload failed", "path", res.FilePath, "key", key, "err", err)
			uploads = append(uploads, Upload{Position: i, FilePath: res.FilePath, Err: fmt.Errorf("upload %s: %w", res.FilePath, err)})
			continue
		}
		u.logger.Debug("archived", "path", res.FilePath, "bucket", u.bucket, "key", key)
		uploads = append(uploads, Upload{Position: i, FilePath: res.FilePath, Key: key})
	}
	return uploads
}

// Keys maps batch positions to object keys for the uploads that succeeded.
func Keys(uploads []Upload) map[int]string {
	keys := make(map[int]string)
	for _, up := range uploads {
		if up.Err == nil {
			keys[up.Position] = up.Key
		}
	}
	return keys
}
