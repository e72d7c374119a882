package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// AddressFields carries the writable columns of an address. Nil means
// unchanged on update.
type AddressFields struct {
	Name         *string
	Address      *string
	MobileNumber *string
}

// AddressService manages shipping addresses scoped to their owner.
type AddressService struct {
	users     repository.UserRepository
	addresses repository.AddressRepository
}

func NewAddressService(users repository.UserRepository, addresses repository.AddressRepository) *AddressService {
	return &AddressService{users: users, addresses: addresses}
}

// List returns the user's addresses, oldest first.
func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list addresses: %w", err))
	}
	return addresses, nil
}

func (s *AddressService) Create(ctx context.Context, userID uuid.UUID, name, address, mobile string) (*models.Address, error) {
	name, address, mobile = strings.TrimSpace(name), strings.TrimSpace(address), strings.TrimSpace(mobile)
	if name == "" || address == "" || mobile == "" {
		return nil, apperrors.Validation("name, address and mobileNumber are required")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("lookup user: %w", err))
	}

	record := &models.Address{UserID: userID, Name: name, Address: address, MobileNumber: mobile}
	if err := s.addresses.Create(ctx, record); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create address: %w", err))
	}
	return record, nil
}

// Update applies the provided fields to an address the user owns.
func (s *AddressService) Update(ctx context.Context, addressID, userID uuid.UUID, fields AddressFields) (*models.Address, error) {
	record, err := s.findOwned(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, src *string, field string) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			return apperrors.Validation(field + " must not be empty")
		}
		*dst = v
		return nil
	}
	if err := apply(&record.Name, fields.Name, "name"); err != nil {
		return nil, err
	}
	if err := apply(&record.Address, fields.Address, "address"); err != nil {
		return nil, err
	}
	if err := apply(&record.MobileNumber, fields.MobileNumber, "mobileNumber"); err != nil {
		return nil, err
	}

	if err := s.addresses.Save(ctx, record); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrAddressNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("save address: %w", err))
	}
	return record, nil
}

func (s *AddressService) Delete(ctx context.Context, addressID, userID uuid.UUID) error {
	if _, err := s.findOwned(ctx, addressID, userID); err != nil {
		return err
	}
	if err := s.addresses.Delete(ctx, addressID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrAddressNotFound
		}
		return apperrors.Internal(fmt.Errorf("delete address: %w", err))
	}
	return nil
}

// findOwned fails the same way whether the address is missing or foreign.
func (s *AddressService) findOwned(ctx context.Context, addressID, userID uuid.UUID) (*models.Address, error) {
	record, err := s.addresses.FindOwned(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrAddressNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("find address: %w", err))
	}
	return record, nil
}
