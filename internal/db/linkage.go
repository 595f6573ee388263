package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrStoreUnlinked marks a data file that predates linkage tracking: the
// store exists but no descriptor says whose it is. Opening it requires an
// explicit Link confirmation from the user.
var ErrStoreUnlinked = errors.New("store has no linkage descriptor")

// Linkage binds a store file to one organization/user identity. The first
// successful open of a fresh store stamps it; every later open checks it.
type Linkage struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	LinkedAt       time.Time `json:"linked_at"`
}

func (l Linkage) matches(org, user uuid.UUID) bool {
	return l.OrganizationID == org && l.UserID == user
}

// LinkageMismatchError refuses a store linked to a different identity.
type LinkageMismatchError struct {
	Path string
	Have Linkage
	Want Linkage
}

func (e *LinkageMismatchError) Error() string {
	return fmt.Sprintf("store %s is linked to organization %s / user %s, not to the caller",
		e.Path, e.Have.OrganizationID, e.Have.UserID)
}

func readLinkage(path string) (*Linkage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l Linkage
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse linkage descriptor %s: %w", path, err)
	}
	return &l, nil
}

func writeLinkage(path string, l Linkage) error {
	raw, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
