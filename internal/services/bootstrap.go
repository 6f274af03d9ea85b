package services

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/repos"
)

// SeedIfEmpty gives a fresh store one sales point and an admin account.
// Collections that already hold data are left alone.
func SeedIfEmpty(ctx context.Context, store *repos.Store, adminEmail, adminPassword string) error {
	d := store.Snapshot()
	if len(d.Locations) > 0 && len(d.Users) > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	adminID := newID("user")
	seeded := map[string]any{}

	err = store.Update(ctx, func(tx *repos.Tx) error {
		if len(tx.Locations()) == 0 {
			ls := tx.MutLocations()
			*ls = append(*ls, domain.Location{
				ID:        newID("loc"),
				Name:      "Center",
				Address:   "15 Lenin St.",
				ManagerID: adminID,
				IsActive:  true,
			})
			seeded["location"] = (*ls)[0].ID
		}
		if len(tx.Users()) == 0 {
			us := tx.MutUsers()
			*us = append(*us, domain.User{
				ID:        adminID,
				Name:      "Administrator",
				Email:     adminEmail,
				Hash:      string(hash),
				Role:      domain.RoleAdmin,
				IsActive:  true,
				CreatedAt: nowUTC(),
			})
			seeded["admin"] = adminEmail
		}
		return nil
	})
	if err != nil {
		return err
	}
	applog.Info(nil, "seed", seeded)
	return nil
}
