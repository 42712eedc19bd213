package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/mascarene/tourdesk/internal/models"
	"gorm.io/gorm"
)

// Profiles loads tenant profiles from the users collection. It is re-read
// on every list recomputation rather than cached, so a profile change (for
// example a company reassignment) takes effect on the next emission.
type Profiles struct {
	DB *gorm.DB
}

// Load returns the tenant profile for an auth user id, or nil when the user
// has no profile document yet.
func (p *Profiles) Load(ctx context.Context, authUserID string) (*Profile, error) {
	if authUserID == "" {
		return nil, nil
	}

	var user models.UserProfile
	err := p.DB.WithContext(ctx).Where("auth_user_id = ?", authUserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile for %s: %w", authUserID, err)
	}

	if user.CompanyID == "" {
		return nil, nil
	}

	return &Profile{
		CompanyID:   user.CompanyID,
		CompanyName: user.CompanyName,
		CompanyType: user.CompanyType,
	}, nil
}
