// Package promptpay builds EMVCo merchant-presented QR payloads for Thai
// PromptPay transfers.
package promptpay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EMVCo tag ids used by PromptPay
const (
	idPayloadFormat       = "00"
	idPOIMethod           = "01"
	idMerchantInfo        = "29"
	idTransactionCurrency = "53"
	idTransactionAmount   = "54"
	idCountryCode         = "58"
	idCRC                 = "63"

	payloadFormat   = "01"
	poiStatic       = "11" // reusable code, payer enters the amount
	poiDynamic      = "12" // amount embedded
	promptPayAID    = "A000000677010111"
	currencyTHB     = "764"
	countryThailand = "TH"

	subPhone   = "01"
	subTaxID   = "02"
	subEWallet = "03"
)

var (
	// ErrInvalidTarget is returned for ids that are not a phone, tax id or e-wallet id
	ErrInvalidTarget = errors.New("invalid promptpay id")
	// ErrInvalidAmount is returned for negative amounts
	ErrInvalidAmount = errors.New("invalid amount")
)

// Payload returns the QR payload for target. target is a mobile number
// (e.g. 0812345678), a 13 digit national/tax id or a 15 digit e-wallet id.
// A zero amount yields a static code.
func Payload(target string, amount decimal.Decimal) (string, error) {
	id := digitsOnly(target)
	if len(id) < 9 || len(id) > 15 {
		return "", ErrInvalidTarget
	}
	if amount.IsNegative() {
		return "", ErrInvalidAmount
	}

	var account string
	switch {
	case len(id) >= 15:
		account = field(subEWallet, id)
	case len(id) >= 13:
		account = field(subTaxID, id)
	default:
		phone, ok := formatPhone(id)
		if !ok {
			return "", ErrInvalidTarget
		}
		account = field(subPhone, phone)
	}

	poi := poiStatic
	if amount.IsPositive() {
		poi = poiDynamic
	}

	var b strings.Builder
	b.WriteString(field(idPayloadFormat, payloadFormat))
	b.WriteString(field(idPOIMethod, poi))
	b.WriteString(field(idMerchantInfo, field("00", promptPayAID)+account))
	b.WriteString(field(idCountryCode, countryThailand))
	b.WriteString(field(idTransactionCurrency, currencyTHB))
	if amount.IsPositive() {
		b.WriteString(field(idTransactionAmount, amount.StringFixed(2)))
	}
	// CRC covers everything up to and including its own id and length
	b.WriteString(idCRC + "04")
	b.WriteString(fmt.Sprintf("%04X", CRC16(b.String())))
	return b.String(), nil
}

// formatPhone turns 0812345678 into 0066812345678. Numbers that do not fit
// the 13 digit field are rejected.
func formatPhone(id string) (string, bool) {
	id = "66" + strings.TrimPrefix(id, "0")
	if len(id) > 13 {
		return "", false
	}
	return strings.Repeat("0", 13-len(id)) + id, true
}

func field(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CRC16 is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF), as required by EMVCo
func CRC16(data string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
