package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        inputs TEXT NOT NULL,
        revenue REAL NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at
        ON predictions(created_at);
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// PredictionRecord is one completed prediction: the user-facing inputs
// that produced it and the predicted revenue.
type PredictionRecord struct {
	ID        int64              `json:"id"`
	Inputs    map[string]float64 `json:"inputs"`
	Revenue   float64            `json:"revenue"`
	CreatedAt time.Time          `json:"created_at"`
}

// SavePrediction records a successful prediction.
func SavePrediction(inputs map[string]float64, revenue float64, at time.Time) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	payload, err := json.Marshal(inputs)
	if err != nil {
		return err
	}
	_, err = database.Exec(`
        INSERT INTO predictions (inputs, revenue, created_at)
        VALUES (?, ?, ?)`,
		string(payload), revenue, at.UTC())
	return err
}

// QueryPredictions returns the most recent predictions, newest first.
func QueryPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT id, inputs, revenue, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var record PredictionRecord
		var inputs string
		if err := rows.Scan(&record.ID, &inputs, &record.Revenue, &record.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(inputs), &record.Inputs); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
