package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"novel_platform/internal/domain"
	"novel_platform/internal/metrics"
	"novel_platform/internal/wallet"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Redeemer claims a wallet voucher and reports the amount received in baht
type Redeemer interface {
	Redeem(ctx context.Context, voucherCode string) (decimal.Decimal, error)
}

// CoinService owns every balance mutation except admin approval
type CoinService struct {
	db       *gorm.DB
	redeemer Redeemer
}

func NewCoinService(db *gorm.DB, redeemer Redeemer) *CoinService {
	return &CoinService{db: db, redeemer: redeemer}
}

// Usage is a coin spend shown in the history page
type Usage struct {
	ID           uint   `json:"id"`
	ChapterID    uint   `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title"`
	NovelID      uint   `json:"novel_id"`
	NovelTitle   string `json:"novel_title"`
	Price        int64  `json:"price"`
	CreatedAt    int64  `json:"created_at"`
}

// History lists a user's top-ups and spends, each newest first
type History struct {
	Balance int64                 `json:"balance"`
	TopUps  []domain.TopUpRequest `json:"topups"`
	Usages  []Usage               `json:"usages"`
}

// Balance returns the user's current coins
func (s *CoinService) Balance(ctx context.Context, userID uint) (int64, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Select("id", "coins").First(&user, userID).Error; err != nil {
		return 0, notFound(err)
	}
	return user.Coins, nil
}

type unlockTarget struct {
	Price    int64
	AuthorID uint
}

// UnlockChapter buys permanent access to a chapter. The price is read inside the
// transaction and the debit only applies while the balance covers it, so the
// balance never goes negative and access exists only if the debit happened.
func (s *CoinService) UnlockChapter(ctx context.Context, userID, chapterID uint) (*domain.ChapterAccess, error) {
	var access domain.ChapterAccess
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target unlockTarget
		res := tx.Table("chapters").
			Select("chapters.price, novels.author_id").
			Joins("JOIN novels ON novels.id = chapters.novel_id").
			Where("chapters.id = ?", chapterID).
			Scan(&target)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		// owners and free chapters never need a purchase
		if target.AuthorID == userID || target.Price == 0 {
			return ErrAlreadyUnlocked
		}
		owned, err := exists(tx.Model(&domain.ChapterAccess{}).Where("user_id = ? AND chapter_id = ?", userID, chapterID))
		if err != nil {
			return err
		}
		if owned {
			return ErrAlreadyUnlocked
		}

		res = tx.Model(&domain.User{}).
			Where("id = ? AND coins >= ?", userID, target.Price).
			UpdateColumn("coins", gorm.Expr("coins - ?", target.Price))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		access = domain.ChapterAccess{UserID: userID, ChapterID: chapterID, Price: target.Price}
		if err := tx.Create(&access).Error; err != nil {
			return fmt.Errorf("grant access: %w", err)
		}
		return nil
	})

	metrics.ObserveCoinOp("unlock", err)
	fields := logrus.Fields{"user_id": userID, "chapter_id": chapterID}
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrAlreadyUnlocked) || errors.Is(err, ErrNotFound) {
			logrus.WithFields(fields).WithError(err).Info("Unlock refused")
		} else {
			logrus.WithFields(fields).WithError(err).Error("Unlock failed")
		}
		return nil, err
	}
	metrics.Debit(access.Price)
	fields["price"] = access.Price
	logrus.WithFields(fields).Info("Chapter unlocked")
	return &access, nil
}

// RedeemVoucher claims a TrueMoney gift link into the platform wallet and
// credits the baht amount, floored, as coins.
func (s *CoinService) RedeemVoucher(ctx context.Context, userID uint, link string) (int64, error) {
	coins, err := s.redeemVoucher(ctx, userID, link)
	metrics.ObserveCoinOp("redeem", err)
	return coins, err
}

func (s *CoinService) redeemVoucher(ctx context.Context, userID uint, link string) (int64, error) {
	code, err := wallet.ParseGiftLink(link)
	if err != nil {
		return 0, ErrInvalidVoucher
	}
	fields := logrus.Fields{"user_id": userID, "voucher": code}

	if s.redeemer == nil {
		return 0, fmt.Errorf("%w: wallet redemption is not configured", ErrRedeemFailed)
	}
	baht, err := s.redeemer.Redeem(ctx, code)
	if err != nil {
		logrus.WithFields(fields).WithError(err).Warn("Voucher redemption rejected")
		return 0, fmt.Errorf("%w: %v", ErrRedeemFailed, err)
	}
	coins := baht.Floor().IntPart()
	if coins < 1 {
		logrus.WithFields(fields).WithField("amount", baht.String()).Warn("Voucher amount below one coin")
		return 0, fmt.Errorf("%w: amount %s is below one coin", ErrRedeemFailed, baht.String())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", userID).
			UpdateColumn("coins", gorm.Expr("coins + ?", coins))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Create(&domain.TopUpRequest{
			UserID:      userID,
			Amount:      coins,
			Method:      domain.MethodWallet,
			VoucherCode: &code,
			Status:      domain.StatusApproved,
		}).Error
	})
	fields["amount"] = coins
	if err != nil {
		// the voucher is already claimed at this point; the coins need a manual credit
		logrus.WithFields(fields).WithError(err).Error("Voucher redeemed but credit failed")
		return 0, err
	}
	metrics.Credit(coins)
	logrus.WithFields(fields).Info("Voucher redeemed")
	return coins, nil
}

// SubmitSlip records a PENDING top-up backed by an uploaded transfer slip
func (s *CoinService) SubmitSlip(ctx context.Context, userID uint, amount int64, proofPath string) (*domain.TopUpRequest, error) {
	if amount <= 0 {
		return nil, invalid("amount must be greater than zero")
	}
	if strings.TrimSpace(proofPath) == "" {
		return nil, ErrInvalidUpload
	}
	req := domain.TopUpRequest{
		UserID:     userID,
		Amount:     amount,
		Method:     domain.MethodSlip,
		ProofImage: &proofPath,
		Status:     domain.StatusPending,
	}
	err := s.db.WithContext(ctx).Create(&req).Error
	metrics.ObserveCoinOp("slip", err)
	fields := logrus.Fields{"user_id": userID, "amount": amount}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Error("Slip submission failed")
		return nil, err
	}
	fields["request_id"] = req.ID
	logrus.WithFields(fields).Info("Slip submitted")
	return &req, nil
}

// History returns the user's balance, top-ups and chapter purchases
func (s *CoinService) History(ctx context.Context, userID uint) (*History, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	h := &History{Balance: balance, TopUps: []domain.TopUpRequest{}, Usages: []Usage{}}
	db := s.db.WithContext(ctx)

	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&h.TopUps).Error; err != nil {
		return nil, fmt.Errorf("load topups: %w", err)
	}
	if err := db.Table("chapter_accesses").
		Select(`chapter_accesses.id, chapter_accesses.chapter_id, chapters.title AS chapter_title,
			chapters.novel_id, novels.title AS novel_title, chapter_accesses.price, chapter_accesses.created_at`).
		Joins("JOIN chapters ON chapters.id = chapter_accesses.chapter_id").
		Joins("JOIN novels ON novels.id = chapters.novel_id").
		Where("chapter_accesses.user_id = ?", userID).
		Order("chapter_accesses.created_at DESC, chapter_accesses.id DESC").
		Scan(&h.Usages).Error; err != nil {
		return nil, fmt.Errorf("load usages: %w", err)
	}
	return h, nil
}
