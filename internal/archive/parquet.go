package archive

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/supportql/supportql/internal/conversation"
)

type ParquetEncodeResult struct {
	Data        []byte
	RecordCount int64
	FirstID     int64
	LastID      int64
}

type parquetRecord struct {
	ID        int64  `parquet:"id"`
	SessionID string `parquet:"session_id"`
	Role      string `parquet:"role"`
	Content   string `parquet:"content"`
	CreatedAt string `parquet:"created_at"`
}

// EncodeRecords serializes transcript records to a parquet blob. Records are
// expected in ascending id order, as returned by the store.
func EncodeRecords(records []conversation.Record) (ParquetEncodeResult, error) {
	if len(records) == 0 {
		return ParquetEncodeResult{}, fmt.Errorf("records are required")
	}

	rows := make([]parquetRecord, 0, len(records))
	for _, record := range records {
		rows = append(rows, parquetRecord{
			ID:        record.ID,
			SessionID: record.SessionID,
			Role:      record.Role,
			Content:   record.Content,
			CreatedAt: record.CreatedAt,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetRecord](buf)
	if _, err := writer.Write(rows); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return ParquetEncodeResult{
		Data:        buf.Bytes(),
		RecordCount: int64(len(rows)),
		FirstID:     records[0].ID,
		LastID:      records[len(records)-1].ID,
	}, nil
}
