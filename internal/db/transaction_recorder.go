package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ammsim "github.com/wanxinwanxin/ammsim"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SimSnapshotRecord is the database model for one completed SimResult.
// Per-strategy maps (PnL, edges, average fees) flatten to JSON text columns
// rather than a normalized child table.
type SimSnapshotRecord struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"`
	Seed             uint64    `gorm:"index;not null"`
	Strategies       string    `gorm:"type:varchar(512);not null;comment:comma-joined strategy names"`
	PnLJSON          string    `gorm:"type:text;not null;comment:strategy name -> PnL"`
	EdgesJSON        string    `gorm:"type:text;not null;comment:strategy name -> edge"`
	AverageFeesJSON  string    `gorm:"type:text;not null;comment:strategy name -> [bidFee, askFee]"`
	InitialFairPrice float64   `gorm:"not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (SimSnapshotRecord) TableName() string {
	return "sim_results"
}

// ResultRecorder persists completed batch results.
type ResultRecorder interface {
	RecordBatch(ammsim.BatchResult) error
	Close() error
}

// MySQLRecorder implements ResultRecorder using GORM and MySQL.
type MySQLRecorder struct {
	db *gorm.DB
}

// NewMySQLRecorder creates a new MySQLRecorder instance.
// dsn format: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
func NewMySQLRecorder(dsn string) (*MySQLRecorder, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := db.AutoMigrate(&SimSnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &MySQLRecorder{db: db}, nil
}

// NewMySQLRecorderWithDB creates a new MySQLRecorder with an existing GORM DB instance.
func NewMySQLRecorderWithDB(db *gorm.DB) (*MySQLRecorder, error) {
	if err := db.AutoMigrate(&SimSnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &MySQLRecorder{db: db}, nil
}

// RecordBatch inserts one row per SimResult in batch.
func (r *MySQLRecorder) RecordBatch(batch ammsim.BatchResult) error {
	for _, res := range batch.Results {
		record, err := toRecord(res)
		if err != nil {
			return fmt.Errorf("failed to encode sim result: %w", err)
		}
		if result := r.db.Create(record); result.Error != nil {
			return fmt.Errorf("failed to record sim result: %w", result.Error)
		}
	}
	return nil
}

func toRecord(res ammsim.SimResult) (*SimSnapshotRecord, error) {
	pnlJSON, err := json.Marshal(res.PnL)
	if err != nil {
		return nil, err
	}
	edgesJSON, err := json.Marshal(res.Edges)
	if err != nil {
		return nil, err
	}
	feesJSON, err := json.Marshal(res.AverageFees)
	if err != nil {
		return nil, err
	}

	return &SimSnapshotRecord{
		Seed:             res.Seed,
		Strategies:       strings.Join(res.Strategies, ","),
		PnLJSON:          string(pnlJSON),
		EdgesJSON:        string(edgesJSON),
		AverageFeesJSON:  string(feesJSON),
		InitialFairPrice: res.InitialFairPrice,
	}, nil
}

// GetDB returns the underlying GORM DB instance for advanced queries.
func (r *MySQLRecorder) GetDB() *gorm.DB {
	return r.db
}

// Close closes the database connection.
func (r *MySQLRecorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}
	return sqlDB.Close()
}

// CountResults returns the total number of recorded sim results.
func (r *MySQLRecorder) CountResults() (int64, error) {
	var count int64
	result := r.db.Model(&SimSnapshotRecord{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count sim results: %w", result.Error)
	}
	return count, nil
}
