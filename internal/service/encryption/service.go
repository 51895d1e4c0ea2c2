package encryption

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	"github.com/ticketnest/ticketing-api/pkg/security"
)

// Service seals ticket-user data for tenants whose security level requires
// field-level encryption. Keys are per-provider secrets, versioned so that
// downstream consumers can pick the matching key for old messages.
type Service struct {
	keys repository.EncryptionKeyRepository
}

func NewService(keys repository.EncryptionKeyRepository) *Service {
	return &Service{keys: keys}
}

// EncryptUserData seals the user's snapshot with the provider's current key.
func (s *Service) EncryptUserData(ctx context.Context, provider *model.TicketProvider, user *model.User) (*model.EncryptedData, error) {
	key, err := s.keys.GetCurrent(ctx, provider.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}

	encryptor, err := s.encryptorFor(provider, key)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user data: %w", err)
	}

	sealed, err := encryptor.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt user data: %w", err)
	}

	return &model.EncryptedData{
		Content: base64.StdEncoding.EncodeToString(sealed),
		Version: key.Version,
	}, nil
}

// DecryptUserData reverses EncryptUserData using the key version carried in
// the message.
func (s *Service) DecryptUserData(ctx context.Context, provider *model.TicketProvider, data *model.EncryptedData) (*model.User, error) {
	key, err := s.keys.GetByVersion(ctx, provider.ID, data.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}

	encryptor, err := s.encryptorFor(provider, key)
	if err != nil {
		return nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(data.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted content: %w", err)
	}

	plaintext, err := encryptor.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt user data: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(plaintext, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	return &user, nil
}

// GenerateKey appends a fresh key version for the provider.
func (s *Service) GenerateKey(ctx context.Context, providerID int64) (*model.TicketProviderEncryptionKey, error) {
	secret, err := security.GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}

	key := &model.TicketProviderEncryptionKey{
		TicketProviderID: providerID,
		SecretKey:        secret,
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Service) encryptorFor(provider *model.TicketProvider, key *model.TicketProviderEncryptionKey) (security.Encryptor, error) {
	derived, err := security.DeriveKey(key.SecretKey, provider.UUID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return security.NewAESEncryptor(derived)
}
