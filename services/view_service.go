package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
	"github.com/abs-valuers/abs_backend/security"
)

type ViewName string

const (
	ViewAdminApps    ViewName = "admin-apps"
	ViewAppDirectory ViewName = "app-directory"
	ViewWorkLedger   ViewName = "work-ledger"
	ViewMarketFeed   ViewName = "market-feed"
	ViewMarketMap    ViewName = "market-map"
	ViewUsers        ViewName = "users"
)

const (
	workLedgerLimit = 200
	marketFeedLimit = 100
	marketMapLimit  = 1000
)

var ErrUnknownView = errors.New("unknown view")

// ViewSpec describes one permission-gated list.
type ViewSpec struct {
	Name    ViewName
	Target  string
	Message string
	Read    security.Capability
}

var viewSpecs = map[ViewName]ViewSpec{
	ViewAdminApps: {
		Name: ViewAdminApps, Target: "App Directory", Read: security.ManageApps,
		Message: "Administrative privileges required to modify external connections.",
	},
	ViewAppDirectory: {
		Name: ViewAppDirectory, Target: "App Directory", Read: security.ReadApps,
		Message: "Sign in to view the app directory.",
	},
	ViewWorkLedger: {
		Name: ViewWorkLedger, Target: "Activity Ledger", Read: security.ReadWorkLogs,
		Message: "Administrator access is required to view the staff work history ledger.",
	},
	ViewMarketFeed: {
		Name: ViewMarketFeed, Target: "Intelligence Feed", Read: security.ManageMarketRecords,
		Message: "Verified admin status required for survey data access.",
	},
	ViewMarketMap: {
		Name: ViewMarketMap, Target: "Survey Terminal", Read: security.ReadOwnMarket,
		Message: "Role authorization required to view rate feeds.",
	},
	ViewUsers: {
		Name: ViewUsers, Target: "Access Matrix", Read: security.ManagePermissions,
		Message: "Administrative privileges required to manage staff roles.",
	},
}

func LookupView(name string) (ViewSpec, error) {
	spec, ok := viewSpecs[ViewName(name)]
	if !ok {
		return ViewSpec{}, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	return spec, nil
}

func (v ViewSpec) Restricted() models.RestrictedView {
	return models.NewRestrictedView(v.Target, v.Message)
}

type FrameType string

const (
	FrameSnapshot   FrameType = "snapshot"
	FrameRestricted FrameType = "restricted"
	FrameError      FrameType = "error"
	FrameRole       FrameType = "role"
)

// Frame is one message of a live view.
type Frame struct {
	Type        FrameType              `json:"type"`
	View        ViewName               `json:"view"`
	Records     any                    `json:"records,omitempty"`
	Count       int                    `json:"count"`
	Quarantined int                    `json:"quarantined,omitempty"`
	Restricted  *models.RestrictedView `json:"restricted,omitempty"`
	Role        models.Role            `json:"role,omitempty"`
	Message     string                 `json:"message,omitempty"`
}

func restrictedFrame(spec ViewSpec) Frame {
	rv := spec.Restricted()
	return Frame{Type: FrameRestricted, View: spec.Name, Restricted: &rv, Message: rv.Message}
}

// ViewService builds the live query behind each view for a given session.
type ViewService struct {
	apps     AppStore
	market   MarketStore
	worklogs WorkLogStore
	perms    PermissionStore
}

func NewViewService(apps AppStore, market MarketStore, worklogs WorkLogStore, perms PermissionStore) *ViewService {
	return &ViewService{apps: apps, market: market, worklogs: worklogs, perms: perms}
}

type viewQuery struct {
	fetch FetchFunc
	watch WatchFunc
}

// query returns the fetch and watch pair for the view, or a permission error
// when the role may not read it.
func (s *ViewService) query(spec ViewSpec, sess *models.Session) (viewQuery, error) {
	role := models.Role("")
	uid := ""
	if sess != nil {
		role = sess.Role
		uid = sess.Identity.UID
	}
	if err := security.Check(role, spec.Read).Err(); err != nil {
		return viewQuery{}, err
	}

	switch spec.Name {
	case ViewAdminApps, ViewAppDirectory:
		return viewQuery{
			fetch: func(ctx context.Context) (any, int, int, error) {
				recs, q, err := s.apps.List(ctx)
				return recs, len(recs), q, err
			},
			watch: s.apps.Watch,
		}, nil
	case ViewWorkLedger:
		return viewQuery{
			fetch: func(ctx context.Context) (any, int, int, error) {
				recs, q, err := s.worklogs.List(ctx, workLedgerLimit)
				return recs, len(recs), q, err
			},
			watch: s.worklogs.Watch,
		}, nil
	case ViewMarketFeed, ViewMarketMap:
		owner, limit := "", int64(marketFeedLimit)
		if spec.Name == ViewMarketMap {
			limit = marketMapLimit
			if !security.Check(role, security.ReadAllMarket).Allowed {
				owner = uid
			}
		}
		return viewQuery{
			fetch: func(ctx context.Context) (any, int, int, error) {
				recs, q, err := s.market.List(ctx, owner, limit)
				return recs, len(recs), q, err
			},
			watch: s.market.Watch,
		}, nil
	case ViewUsers:
		return viewQuery{
			fetch: func(ctx context.Context) (any, int, int, error) {
				recs, q, err := s.perms.List(ctx)
				return recs, len(recs), q, err
			},
			watch: s.perms.Watch,
		}, nil
	}
	return viewQuery{}, fmt.Errorf("%w: %q", ErrUnknownView, spec.Name)
}

// Snapshot runs the view's query once. A permission error becomes a
// restricted frame, not an error.
func (s *ViewService) Snapshot(ctx context.Context, spec ViewSpec, sess *models.Session) (Frame, error) {
	q, err := s.query(spec, sess)
	if err != nil {
		if repositories.IsPermissionDenied(err) {
			return restrictedFrame(spec), nil
		}
		return Frame{}, err
	}
	recs, count, quarantined, err := q.fetch(ctx)
	if err != nil {
		if repositories.IsPermissionDenied(err) {
			return restrictedFrame(spec), nil
		}
		return Frame{}, err
	}
	return Frame{Type: FrameSnapshot, View: spec.Name, Records: recs, Count: count, Quarantined: quarantined}, nil
}

// MarkerColor is blue for commercial records and green for the rest.
func MarkerColor(propertyType string) string {
	if propertyType == "Commercial" {
		return "#3b82f6"
	}
	return "#10b981"
}

func Markers(records []models.PropertyRecord) []models.Marker {
	out := make([]models.Marker, 0, len(records))
	for _, r := range records {
		out = append(out, models.Marker{
			ID:    r.ID.Hex(),
			Lat:   r.Lat,
			Lng:   r.Lng,
			Color: MarkerColor(r.Type),
			Popup: fmt.Sprintf("%s ₹%s", r.Type, formatRate(r.Rate)),
		})
	}
	return out
}

func formatRate(rate float64) string {
	if rate == float64(int64(rate)) {
		return fmt.Sprintf("%d", int64(rate))
	}
	return fmt.Sprintf("%.2f", rate)
}
