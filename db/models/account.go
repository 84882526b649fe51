package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func init() {
	registerModel(&Account{})
}

var ErrEmailImmutable = errors.New("email cannot be changed")

type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

var Subscriptions = []Subscription{SubscriptionStarter, SubscriptionPro, SubscriptionBusiness}

func (s Subscription) Valid() bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

type Account struct {
	ID                string `gorm:"primaryKey;size:36"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Email             string       `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash      string       `gorm:"not null"`
	Verify            bool         `gorm:"default:false;not null"`
	VerificationToken *string      `gorm:"index;size:64"`
	Token             *string      `gorm:"index;size:512"`
	Subscription      Subscription `gorm:"size:16;default:starter;not null"`
	AvatarURL         string       `gorm:"size:1024"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Subscription == "" {
		a.Subscription = SubscriptionStarter
	}

	return nil
}

func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	switch dest := tx.Statement.Dest.(type) {
	case *Account:
		if tx.Statement.Changed("Email") {
			return ErrEmailImmutable
		}
	case map[string]any:
		if _, ok := dest["email"]; ok {
			return ErrEmailImmutable
		}
	}

	return nil
}
