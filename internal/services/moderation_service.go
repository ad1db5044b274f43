package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrAlreadyBlocked = errors.New("user already blocked")
	ErrSelfBlock      = errors.New("cannot block yourself")
	ErrSelfReport     = errors.New("cannot report yourself")
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"spam", "scam", "scammer", "phishing", "malware",
	"hate", "abuse",
}

const maskText = "***"

type ModerationService struct {
	db                *gorm.DB
	excl              *ExclusionBuilder
	bannedWordRegexps []*regexp.Regexp
	urlPattern        *regexp.Regexp
	emailPattern      *regexp.Regexp
	phonePattern      *regexp.Regexp
	compiled          bool
	mu                sync.RWMutex
}

func NewModerationService(db *gorm.DB, excl *ExclusionBuilder) *ModerationService {
	ms := &ModerationService{db: db, excl: excl}
	ms.compilePatterns()
	return ms
}

func (ms *ModerationService) compilePatterns() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.compiled {
		return
	}

	ms.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
		re, err := regexp.Compile(pattern)
		if err == nil {
			ms.bannedWordRegexps = append(ms.bannedWordRegexps, re)
		}
	}

	ms.urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`)
	ms.emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	ms.phonePattern = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`)
	ms.compiled = true
}

// FilterContent reports whether public profile text is acceptable and, if
// not, a machine-readable reason.
func (ms *ModerationService) FilterContent(text string) (bool, string) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if text == "" {
		return true, ""
	}
	for _, re := range ms.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if ms.urlPattern.MatchString(text) {
		return false, "url_not_allowed"
	}
	if ms.emailPattern.MatchString(text) || ms.phonePattern.MatchString(text) {
		return false, "contact_info_not_allowed"
	}
	return true, ""
}

// MaskContent replaces every banned word in a chat message with "***". The
// second result is true when anything was masked.
func (ms *ModerationService) MaskContent(text string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	masked := text
	for _, re := range ms.bannedWordRegexps {
		masked = re.ReplaceAllString(masked, maskText)
	}
	return masked, masked != text
}

func (ms *ModerationService) GetRejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language":   "Your profile contains inappropriate language.",
		"url_not_allowed":          "URLs and web links are not allowed.",
		"contact_info_not_allowed": "Contact information is not allowed.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your profile does not meet our content guidelines."
}

func (ms *ModerationService) CreateReport(ctx context.Context, reporterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	if req.ReportedUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: reported_user_id is required", ErrInvalidInput)
	}
	if req.ReportedUserID == reporterID {
		return nil, ErrSelfReport
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	if len(reason) > 500 {
		return nil, fmt.Errorf("%w: reason too long (max 500 characters)", ErrInvalidInput)
	}

	report := models.Report{
		ReporterID:     reporterID,
		ReportedUserID: req.ReportedUserID,
		Reason:         reason,
		Status:         "pending",
	}
	if err := ms.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (ms *ModerationService) ListReports(ctx context.Context, status string, limit, offset int) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := ms.db.WithContext(ctx).Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (ms *ModerationService) ActionReport(ctx context.Context, reportID uuid.UUID, req *dto.ActionReportRequest) error {
	validStatuses := map[string]bool{"reviewed": true, "actioned": true, "dismissed": true}
	if !validStatuses[req.Status] {
		return fmt.Errorf("%w: status must be reviewed, actioned, or dismissed", ErrInvalidInput)
	}

	result := ms.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", reportID).
		Updates(map[string]interface{}{
			"status":     req.Status,
			"admin_note": req.AdminNote,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

// BlockUser hides the two users from each other and stops invites between them.
func (ms *ModerationService) BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}

	block := models.Block{BlockerID: blockerID, BlockedID: blockedID}
	res := ms.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&block)
	if res.Error != nil {
		return fmt.Errorf("failed to block user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyBlocked
	}
	ms.excl.Invalidate(ctx, blockerID, blockedID)
	return nil
}

// UnblockUser removes the block. Earlier invites, skips and matches still
// keep the pair out of discovery.
func (ms *ModerationService) UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if err := ms.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error; err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	ms.excl.Invalidate(ctx, blockerID, blockedID)
	return nil
}

func (ms *ModerationService) GetBlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := ms.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
