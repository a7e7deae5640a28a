package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// gormDirectory resolves principals against the users/groups tables.
type gormDirectory struct {
	db *gorm.DB
}

func (d *gormDirectory) ResolvePrincipal(ctx context.Context, name string) (*Principal, error) {
	var row UserRow
	err := d.db.WithContext(ctx).First(&row, "login = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving principal %q: %w", name, err)
	}
	return &Principal{
		ID:          row.ID,
		DisplayName: row.DisplayName(),
		Login:       row.Login,
	}, nil
}

func (d *gormDirectory) ResolveGroup(ctx context.Context, name string) (*GroupEntry, error) {
	var row GroupRow
	err := d.db.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving group %q: %w", name, err)
	}
	return &GroupEntry{Name: row.Name, Label: row.Label}, nil
}
