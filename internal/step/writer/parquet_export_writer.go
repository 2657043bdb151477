package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	storageadapter "github.com/wmutunga/zephyr/internal/adapter/storage"
	"github.com/wmutunga/zephyr/internal/config"
	"github.com/wmutunga/zephyr/internal/domain/entity"
	"github.com/wmutunga/zephyr/pkg/util/exception"
	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// ParquetExportWriter writes a Parquet snapshot of the cleaned records,
// one file per dt=YYYY-MM-DD partition derived from the observation hour.
// A partition that fails to serialize or upload does not abort the others.
type ParquetExportWriter struct {
	cfg      config.ExportConfig
	provider storageadapter.Provider
}

func NewParquetExportWriter(cfg config.ExportConfig, provider storageadapter.Provider) *ParquetExportWriter {
	return &ParquetExportWriter{cfg: cfg, provider: provider}
}

// Export partitions the records by observation date and uploads one Parquet
// file per partition through the configured storage connection.
func (w *ParquetExportWriter) Export(ctx context.Context, records []entity.CleanedRecord) error {
	if !w.cfg.Enabled {
		logger.Debugf("export: disabled, skipping snapshot")
		return nil
	}
	if len(records) == 0 {
		logger.Infof("export: no records, skipping snapshot")
		return nil
	}

	codec, err := compressionCodec(w.cfg.Compression)
	if err != nil {
		return exception.NewPipelineError("export", fmt.Sprintf("invalid compression type '%s'", w.cfg.Compression), err, false)
	}

	conn, err := w.provider.GetConnection(w.cfg.StorageRef)
	if err != nil {
		return exception.NewPipelineError("export", fmt.Sprintf("failed to resolve storage connection '%s'", w.cfg.StorageRef), err, false)
	}

	partitions := make(map[string][]entity.CleanedRecordArchive)
	for _, rec := range records {
		key := "dt=" + rec.DatetimeFromUTC.UTC().Format("2006-01-02")
		partitions[key] = append(partitions[key], rec.ToArchive())
	}

	var multiErr error
	for partitionKey, items := range partitions {
		buf, err := w.writePartition(items, codec)
		if err != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("partition '%s': %w", partitionKey, err))
			continue
		}
		fileName := fmt.Sprintf("data_%s_%s.parquet", time.Now().UTC().Format("20060102150405"), uuid.NewString()[:8])
		objectName := path.Join(w.cfg.OutputBaseDir, partitionKey, fileName)
		if err := conn.Upload(ctx, "", objectName, buf, "application/octet-stream"); err != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("partition '%s': upload to '%s' failed: %w", partitionKey, objectName, err))
			continue
		}
		logger.Infof("export: wrote %d records to %s", len(items), objectName)
	}
	return multiErr
}

// writePartition serializes one partition into an in-memory Parquet file.
// The row group size is the partition size, so each file holds one row group.
func (w *ParquetExportWriter) writePartition(items []entity.CleanedRecordArchive, codec parquet.CompressionCodec) (buf *bytes.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked: %v", r)
		}
	}()

	buf = new(bytes.Buffer)
	pw, err := pqwriter.NewParquetWriterFromWriter(buf, new(entity.CleanedRecordArchive), int64(len(items)))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for _, item := range items {
		if err := pw.Write(item); err != nil {
			return nil, fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return buf, nil
}

func compressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY", "":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}
