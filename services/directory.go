package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"ethics-review-api/models"

	"gorm.io/gorm"
)

// Identity is a resolved caller.
type Identity struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// ErrUnknownIdentity is returned when an id does not resolve to an active user.
var ErrUnknownIdentity = errors.New("identity not found")

// Directory resolves identities and role membership. It is owned by the
// account system; the workflow only reads from it.
type Directory interface {
	Lookup(ctx context.Context, id string) (Identity, error)
	MembersByRole(ctx context.Context, role models.Role) ([]Identity, error)
}

// GormDirectory reads identities from the users table.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) Lookup(ctx context.Context, id string) (Identity, error) {
	var user models.User
	if err := d.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", id).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrUnknownIdentity
		}
		return Identity{}, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return identityFromUser(user), nil
}

func (d *GormDirectory) MembersByRole(ctx context.Context, role models.Role) ([]Identity, error) {
	var users []models.User
	if err := d.db.WithContext(ctx).
		Where("role = ? AND delete_at IS NULL", role).
		Order("user_id ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s members: %w", role, err)
	}
	members := make([]Identity, 0, len(users))
	for _, user := range users {
		members = append(members, identityFromUser(user))
	}
	return members, nil
}

func identityFromUser(user models.User) Identity {
	return Identity{ID: user.UserID, Name: user.Name, Email: user.Email, Role: user.Role}
}

// StaticDirectory is an in-memory directory for the memory store mode and tests.
// Membership can change at runtime with Put and Remove.
type StaticDirectory struct {
	mu         sync.RWMutex
	identities map[string]Identity
}

func NewStaticDirectory(identities ...Identity) *StaticDirectory {
	d := &StaticDirectory{identities: make(map[string]Identity, len(identities))}
	for _, identity := range identities {
		d.identities[identity.ID] = identity
	}
	return d
}

func (d *StaticDirectory) Put(identity Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.identities[identity.ID] = identity
}

func (d *StaticDirectory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.identities, id)
}

func (d *StaticDirectory) Lookup(_ context.Context, id string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	identity, ok := d.identities[id]
	if !ok {
		return Identity{}, ErrUnknownIdentity
	}
	return identity, nil
}

func (d *StaticDirectory) MembersByRole(_ context.Context, role models.Role) ([]Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	members := make([]Identity, 0)
	for _, identity := range d.identities {
		if identity.Role == role {
			members = append(members, identity)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}
