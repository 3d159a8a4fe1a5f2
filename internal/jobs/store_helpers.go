package jobs

import (
	"database/sql"
	"strings"
	"time"
)

const jobColumns = "id, source_media, original_name, result_media, status, error_message, detected_language, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		sourceMedia      sql.NullString
		originalName     sql.NullString
		resultMedia      sql.NullString
		statusStr        string
		errorMessage     sql.NullString
		detectedLanguage sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceMedia,
		&originalName,
		&resultMedia,
		&statusStr,
		&errorMessage,
		&detectedLanguage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		SourceMedia:      sourceMedia.String,
		OriginalName:     originalName.String,
		ResultMedia:      resultMedia.String,
		Status:           Status(statusStr),
		ErrorMessage:     errorMessage.String,
		DetectedLanguage: detectedLanguage.String,
	}
	if createdRaw.Valid {
		job.CreatedAt = parseTimeString(createdRaw.String)
	}
	if updatedRaw.Valid {
		job.UpdatedAt = parseTimeString(updatedRaw.String)
	}
	return job, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimeString(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
