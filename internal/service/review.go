package service

import (
	"context"

	"novel_platform/internal/domain"
	"novel_platform/internal/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewService is the admin queue for slip top-ups. Callers must have
// passed the admin capability check.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// ListPending returns PENDING requests, oldest first, with their requesters
func (s *ReviewService) ListPending(ctx context.Context) ([]domain.TopUpRequest, error) {
	reqs := []domain.TopUpRequest{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", domain.StatusPending).
		Order("created_at ASC, id ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	metrics.PendingTopUps.Set(float64(len(reqs)))
	return reqs, nil
}

// Approve moves a PENDING request to APPROVED and credits its amount. The status
// flip is conditional on PENDING, so a request can be credited at most once.
func (s *ReviewService) Approve(ctx context.Context, requestID, adminID uint) (*domain.TopUpRequest, error) {
	req, err := s.decide(ctx, requestID, adminID, domain.StatusApproved)
	metrics.ObserveCoinOp("approve", err)
	if err == nil {
		metrics.Credit(req.Amount)
	}
	return req, err
}

// Reject moves a PENDING request to REJECTED. Balances are untouched.
func (s *ReviewService) Reject(ctx context.Context, requestID, adminID uint) (*domain.TopUpRequest, error) {
	req, err := s.decide(ctx, requestID, adminID, domain.StatusRejected)
	metrics.ObserveCoinOp("reject", err)
	return req, err
}

func (s *ReviewService) decide(ctx context.Context, requestID, adminID uint, to domain.TopUpStatus) (*domain.TopUpRequest, error) {
	var req domain.TopUpRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, requestID).Error; err != nil {
			return notFound(err)
		}
		if req.Status != domain.StatusPending {
			return ErrNotPending
		}
		res := tx.Model(&domain.TopUpRequest{}).
			Where("id = ? AND status = ?", requestID, domain.StatusPending).
			Updates(map[string]any{"status": to, "reviewed_by": adminID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}
		if to == domain.StatusApproved {
			res = tx.Model(&domain.User{}).Where("id = ?", req.UserID).
				UpdateColumn("coins", gorm.Expr("coins + ?", req.Amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		return tx.First(&req, requestID).Error
	})

	fields := logrus.Fields{"request_id": requestID, "admin_id": adminID, "status": to}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Warn("Top-up review failed")
		return nil, err
	}
	fields["user_id"] = req.UserID
	fields["amount"] = req.Amount
	logrus.WithFields(fields).Info("Top-up reviewed")
	return &req, nil
}
