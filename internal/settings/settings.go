// Package settings is the hot-readable key/value bot configuration kept in
// the bot_configurations table.
package settings

import (
	"context"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/types"
)

const (
	KeyDefaultSymbol                = "DEFAULT_SYMBOL"
	KeyDefaultInterval              = "DEFAULT_INTERVAL"
	KeyDefaultLimit                 = "DEFAULT_LIMIT"
	KeyPredictionThreshold          = "PREDICTION_THRESHOLD"
	KeyStoplossFromAccountBalance   = "STOPLOSS_FROM_ACCOUNT_BALANCE"
	KeyTakeProfitFromAccountBalance = "TAKEPROFIT_FROM_ACCOUNT_BALANCE"
	KeyStoplossFromCoin             = "STOPLOSS_FROM_COIN"
	KeyTakeProfitFromCoin           = "TAKEPROFIT_FROM_COIN"
)

type BotConfiguration struct {
	ID          uint   `gorm:"primaryKey"`
	ConfigKey   string `gorm:"column:config_key;size:50;uniqueIndex;not null"`
	ConfigValue string `gorm:"column:config_value;size:255"`
	Description string `gorm:"column:description"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (BotConfiguration) TableName() string { return "bot_configurations" }

// Open connects to the settings database. driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}
	return gorm.Open(dialector, gcfg)
}

type Store struct {
	db       *gorm.DB
	fallback types.Settings
}

// NewStore wraps db. fallback supplies every value missing or unreadable in the table.
func NewStore(db *gorm.DB, fallback types.Settings) *Store {
	return &Store{db: db, fallback: fallback}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&BotConfiguration{})
}

func (s *Store) GetValue(ctx context.Context, key, def string) (string, error) {
	var row BotConfiguration
	res := s.db.WithContext(ctx).Where("config_key = ?", key).Limit(1).Find(&row)
	if res.Error != nil {
		return def, res.Error
	}
	if res.RowsAffected == 0 {
		return def, nil
	}
	return row.ConfigValue, nil
}

func (s *Store) SetValue(ctx context.Context, key, value string) error {
	row := BotConfiguration{ConfigKey: key, ConfigValue: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_value", "updated_at"}),
	}).Create(&row).Error
}

// SeedDefaults inserts the fallback values for keys that are not present yet.
func (s *Store) SeedDefaults(ctx context.Context) error {
	f := s.fallback
	rows := []BotConfiguration{
		{ConfigKey: KeyDefaultSymbol, ConfigValue: f.Symbol, Description: "Default trading symbol"},
		{ConfigKey: KeyDefaultInterval, ConfigValue: f.Interval, Description: "Default candle interval"},
		{ConfigKey: KeyDefaultLimit, ConfigValue: strconv.Itoa(f.Limit), Description: "Default candle limit"},
		{ConfigKey: KeyPredictionThreshold, ConfigValue: strconv.Itoa(f.PredictionThreshold), Description: "Threshold for prediction logic"},
		{ConfigKey: KeyStoplossFromAccountBalance, ConfigValue: formatFloat(f.Risk.StoplossFromAccountBalance), Description: "Stop loss as a fraction of account balance"},
		{ConfigKey: KeyTakeProfitFromAccountBalance, ConfigValue: formatFloat(f.Risk.TakeProfitFromAccountBalance), Description: "Take profit as a fraction of account balance"},
		{ConfigKey: KeyStoplossFromCoin, ConfigValue: formatFloat(f.Risk.StoplossFromCoin), Description: "Stop loss as a fraction of price"},
		{ConfigKey: KeyTakeProfitFromCoin, ConfigValue: formatFloat(f.Risk.TakeProfitFromCoin), Description: "Take profit as a fraction of price"},
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Snapshot reads every key in one query. On a store failure the fallback is
// returned so a cycle can still run.
func (s *Store) Snapshot(ctx context.Context) types.Settings {
	out := s.fallback

	var rows []BotConfiguration
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		logger.Warn(ctx, "Settings store unavailable, using file defaults", "error", err)
		return out
	}

	for _, r := range rows {
		switch r.ConfigKey {
		case KeyDefaultSymbol:
			if r.ConfigValue != "" {
				out.Symbol = r.ConfigValue
			}
		case KeyDefaultInterval:
			if r.ConfigValue != "" {
				out.Interval = r.ConfigValue
			}
		case KeyDefaultLimit:
			setInt(ctx, r, &out.Limit)
		case KeyPredictionThreshold:
			setInt(ctx, r, &out.PredictionThreshold)
		case KeyStoplossFromAccountBalance:
			setFloat(ctx, r, &out.Risk.StoplossFromAccountBalance)
		case KeyTakeProfitFromAccountBalance:
			setFloat(ctx, r, &out.Risk.TakeProfitFromAccountBalance)
		case KeyStoplossFromCoin:
			setFloat(ctx, r, &out.Risk.StoplossFromCoin)
		case KeyTakeProfitFromCoin:
			setFloat(ctx, r, &out.Risk.TakeProfitFromCoin)
		}
	}
	return out
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func setInt(ctx context.Context, r BotConfiguration, dst *int) {
	v, err := strconv.Atoi(r.ConfigValue)
	if err != nil {
		logger.Warn(ctx, "Ignoring malformed setting", "key", r.ConfigKey, "value", r.ConfigValue)
		return
	}
	*dst = v
}

func setFloat(ctx context.Context, r BotConfiguration, dst *float64) {
	v, err := strconv.ParseFloat(r.ConfigValue, 64)
	if err != nil {
		logger.Warn(ctx, "Ignoring malformed setting", "key", r.ConfigKey, "value", r.ConfigValue)
		return
	}
	*dst = v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
