package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/security"
)

// workLogZone is the timezone of the date label stamped on work logs.
var workLogZone = time.FixedZone("IST", 5*60*60+30*60)

// RecordService performs the create/delete actions of the gated views.
type RecordService struct {
	apps     AppStore
	market   MarketStore
	worklogs WorkLogStore
	perms    PermissionStore
	notifier SessionNotifier
	validate *validator.Validate
	logger   echo.Logger
	now      func() time.Time
}

func NewRecordService(apps AppStore, market MarketStore, worklogs WorkLogStore, perms PermissionStore,
	notifier SessionNotifier, logger echo.Logger) *RecordService {
	return &RecordService{
		apps:     apps,
		market:   market,
		worklogs: worklogs,
		perms:    perms,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *RecordService) CreateApp(ctx context.Context, sess *models.Session, req models.CreateAppRequest) (*models.ExternalApp, error) {
	if err := security.Check(sess.Role, security.ManageApps).Err(); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	app := &models.ExternalApp{
		Name:        strings.TrimSpace(req.Name),
		URL:         strings.TrimSpace(req.URL),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		CreatedAt:   s.now(),
	}
	if app.Category == "" {
		app.Category = models.DefaultAppCategory
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *RecordService) DeleteApp(ctx context.Context, sess *models.Session, id string) error {
	if err := security.Check(sess.Role, security.ManageApps).Err(); err != nil {
		return err
	}
	return s.apps.Delete(ctx, id)
}

func (s *RecordService) CreateMarketRecord(ctx context.Context, sess *models.Session, req models.CreatePropertyRecordRequest) (*models.PropertyRecord, error) {
	if err := security.Check(sess.Role, security.CreateMarketRecord).Err(); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	rec := &models.PropertyRecord{
		Lat:        req.Lat,
		Lng:        req.Lng,
		Type:       req.Type,
		Rate:       req.Rate,
		AreaName:   strings.TrimSpace(req.AreaName),
		City:       strings.TrimSpace(req.City),
		RecordedBy: models.NormalizeEmail(sess.Identity.Email),
		UserID:     sess.Identity.UID,
		Timestamp:  s.now(),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if err := s.market.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecordService) DeleteMarketRecord(ctx context.Context, sess *models.Session, id string) error {
	if err := security.Check(sess.Role, security.ManageMarketRecords).Err(); err != nil {
		return err
	}
	return s.market.Delete(ctx, id)
}

func (s *RecordService) CreateWorkLog(ctx context.Context, sess *models.Session, req models.CreateWorkLogRequest) (*models.WorkLogEntry, error) {
	if err := security.Check(sess.Role, security.CreateWorkLog).Err(); err != nil {
		return nil, err
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = sess.Identity.Label()
	}
	now := s.now()
	entry := &models.WorkLogEntry{
		Name:       name,
		Reason:     req.Reason,
		UserID:     sess.Identity.UID,
		RecordedBy: models.NormalizeEmail(sess.Identity.Email),
		Timestamp:  now,
		Date:       now.In(workLogZone).Format("2/1/2006"),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.worklogs.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *RecordService) DeleteWorkLog(ctx context.Context, sess *models.Session, id string) error {
	if err := security.Check(sess.Role, security.ManageWorkLogs).Err(); err != nil {
		return err
	}
	return s.worklogs.Delete(ctx, id)
}

// UpdateRole changes a stored role and pushes it to the user's open sessions.
func (s *RecordService) UpdateRole(ctx context.Context, sess *models.Session, email string, role models.Role) error {
	email = models.NormalizeEmail(email)
	target, err := s.perms.Get(ctx, email)
	if err != nil {
		return err
	}
	if err := security.CheckRoleChange(sess.Role, target, role); err != nil {
		return err
	}
	if err := s.perms.UpdateRole(ctx, email, role); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyRoleChange(email, role)
	}
	s.logger.Infof("role of %s set to %s by %s", email, role, sess.Identity.Email)
	return nil
}

func (s *RecordService) DeletePermission(ctx context.Context, sess *models.Session, email string) error {
	email = models.NormalizeEmail(email)
	target, err := s.perms.Get(ctx, email)
	if err != nil {
		return err
	}
	if err := security.CheckPermissionDelete(sess.Role, target); err != nil {
		return err
	}
	return s.perms.Delete(ctx, email)
}

// Create dispatches a live-view create action.
func (s *RecordService) Create(ctx context.Context, view ViewName, sess *models.Session, data json.RawMessage) (any, error) {
	switch view {
	case ViewAdminApps:
		var req models.CreateAppRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		return s.CreateApp(ctx, sess, req)
	case ViewMarketMap:
		var req models.CreatePropertyRecordRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		return s.CreateMarketRecord(ctx, sess, req)
	}
	return nil, fmt.Errorf("view %s has no create action", view)
}

// Delete dispatches a live-view delete action.
func (s *RecordService) Delete(ctx context.Context, view ViewName, sess *models.Session, id string) error {
	switch view {
	case ViewAdminApps:
		return s.DeleteApp(ctx, sess, id)
	case ViewWorkLedger:
		return s.DeleteWorkLog(ctx, sess, id)
	case ViewMarketFeed:
		return s.DeleteMarketRecord(ctx, sess, id)
	case ViewUsers:
		return s.DeletePermission(ctx, sess, id)
	}
	return fmt.Errorf("view %s has no delete action", view)
}
