package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known setting keys.
const (
	SettingEventDate   = "event_date"   // RFC3339
	SettingEventActive = "event_active" // bool
)

var validSettingTypes = map[string]bool{"string": true, "bool": true, "int": true, "time": true, "json": true}

type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// All returns every setting decoded by its declared type.
func (s *SettingsService) All(ctx context.Context) (map[string]interface{}, error) {
	var settings []models.Setting
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	result := make(map[string]interface{}, len(settings))
	for _, st := range settings {
		var value interface{}
		switch st.Type {
		case "bool":
			value, _ = strconv.ParseBool(st.Value)
		case "int":
			value, _ = strconv.Atoi(st.Value)
		case "json":
			_ = json.Unmarshal([]byte(st.Value), &value)
		default:
			value = st.Value
		}
		result[st.Key] = value
	}
	return result, nil
}

// Set creates or replaces key. Values are validated against their type, and
// the event keys have fixed types.
func (s *SettingsService) Set(ctx context.Context, key string, req *dto.UpsertSettingRequest) (*models.Setting, error) {
	if key == "" || len(key) > 100 {
		return nil, fmt.Errorf("%w: key must be 1-100 characters", ErrInvalidInput)
	}
	typ := req.Type
	switch key {
	case SettingEventDate:
		typ = "time"
	case SettingEventActive:
		typ = "bool"
	}
	if typ == "" {
		typ = "string"
	}
	if !validSettingTypes[typ] {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, typ)
	}
	if err := validateSettingValue(typ, req.Value); err != nil {
		return nil, err
	}

	setting := models.Setting{Key: key, Value: req.Value, Type: typ}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(&setting).Error; err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}
	return &setting, nil
}

func validateSettingValue(typ, value string) error {
	var err error
	switch typ {
	case "bool":
		_, err = strconv.ParseBool(value)
	case "int":
		_, err = strconv.Atoi(value)
	case "time":
		_, err = time.Parse(time.RFC3339, value)
	case "json":
		if !json.Valid([]byte(value)) {
			err = fmt.Errorf("invalid json")
		}
	default:
		if value == "" {
			err = fmt.Errorf("value is required")
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s value: %v", ErrInvalidInput, typ, err)
	}
	return nil
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EventStatus reports the countdown. The event is active only while the flag
// is set and the date is still ahead of now.
func (s *SettingsService) EventStatus(ctx context.Context, now time.Time) (*dto.EventStatusResponse, error) {
	var settings []models.Setting
	if err := s.db.WithContext(ctx).
		Where("key IN ?", []string{SettingEventDate, SettingEventActive}).
		Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch event settings: %w", err)
	}

	var (
		active bool
		date   time.Time
		resp   dto.EventStatusResponse
	)
	for _, st := range settings {
		switch st.Key {
		case SettingEventActive:
			active, _ = strconv.ParseBool(st.Value)
		case SettingEventDate:
			if t, err := time.Parse(time.RFC3339, st.Value); err == nil {
				date = t
				resp.EventDate = t.UTC().Format(time.RFC3339)
			}
		}
	}
	if active && !date.IsZero() && date.After(now) {
		resp.Active = true
		resp.SecondsRemaining = int64(date.Sub(now) / time.Second)
	}
	return &resp, nil
}
