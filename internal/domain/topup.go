package domain

// TopUpMethod identifies how coins were purchased
type TopUpMethod string

const (
	MethodSlip   TopUpMethod = "SLIP"   // Bank transfer slip, reviewed by an admin
	MethodWallet TopUpMethod = "WALLET" // TrueMoney gift voucher, credited immediately
)

// TopUpStatus is the review state of a top-up request
type TopUpStatus string

const (
	StatusPending  TopUpStatus = "PENDING"
	StatusApproved TopUpStatus = "APPROVED"
	StatusRejected TopUpStatus = "REJECTED"
)

// TopUpRequest Model. Status leaves PENDING at most once.
type TopUpRequest struct {
	ID          uint        `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID      uint        `gorm:"not null;index" json:"user_id"`                        // Requesting user
	User        *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`              // Requesting user, preloaded for review
	Amount      int64       `gorm:"not null" json:"amount"`                               // Coins to credit
	Method      TopUpMethod `gorm:"size:16;not null" json:"method"`                       // SLIP or WALLET
	ProofImage  *string     `gorm:"size:512" json:"proof_image,omitempty"`                // Public path of the slip
	VoucherCode *string     `gorm:"size:64;uniqueIndex" json:"voucher_code,omitempty"`    // Redeemed voucher hash
	Status      TopUpStatus `gorm:"size:16;not null;default:PENDING;index" json:"status"` // Review state
	ReviewedBy  *uint       `json:"reviewed_by,omitempty"`                                // Admin who decided
	CreatedAt   int64       `gorm:"autoCreateTime:milli" json:"created_at"`               // Creation time in ms
	UpdatedAt   int64       `gorm:"autoUpdateTime:milli" json:"updated_at"`               // Last update in ms
}
