package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlewis26201/pushgate/internal/crypto"
	"github.com/mlewis26201/pushgate/internal/repository"
)

// RotateReport summarizes a key rotation pass over the credential store.
type RotateReport struct {
	Tokens    int // token rows re-encrypted
	Providers int // provider config rows re-encrypted
	Passwords int // admin password rows re-encrypted
	Skipped   []string
}

// RotateKey re-encrypts every ciphertext field under newCipher, one record
// at a time. Records that no longer decrypt under oldCipher are skipped and
// reported rather than aborting the pass, so a single corrupt row cannot
// wedge the rotation. Run with the server stopped; the caller is
// responsible for backing up and replacing the key file.
func RotateKey(
	ctx context.Context,
	oldCipher, newCipher *crypto.Cipher,
	tokens repository.TokenRepository,
	providers repository.ProviderRepository,
	admins repository.AdminRepository,
) (RotateReport, error) {
	var rep RotateReport

	toks, err := tokens.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("list tokens: %w", err)
	}
	for _, t := range toks {
		enc, err := reencrypt(oldCipher, newCipher, t.EncToken)
		if err != nil {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("token %d: %v", t.ID, err))
			continue
		}
		if err := tokens.SetCiphertext(ctx, t.ID, enc); err != nil {
			return rep, fmt.Errorf("token %d: %w", t.ID, err)
		}
		rep.Tokens++
	}

	cfgs, err := providers.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("list provider configs: %w", err)
	}
	for _, p := range cfgs {
		encApp, appErr := reencrypt(oldCipher, newCipher, p.EncAppToken)
		encUser, userErr := reencrypt(oldCipher, newCipher, p.EncUserKey)
		if err := errors.Join(appErr, userErr); err != nil {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("provider %d (%s): %v", p.ID, p.Name, err))
			continue
		}
		if err := providers.SetCiphertexts(ctx, p.ID, encApp, encUser); err != nil {
			return rep, fmt.Errorf("provider %d: %w", p.ID, err)
		}
		rep.Providers++
	}

	pws, err := admins.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("list admin passwords: %w", err)
	}
	for _, a := range pws {
		enc, err := reencrypt(oldCipher, newCipher, a.EncPassword)
		if err != nil {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("admin password %d: %v", a.ID, err))
			continue
		}
		if err := admins.SetCiphertext(ctx, a.ID, enc); err != nil {
			return rep, fmt.Errorf("admin password %d: %w", a.ID, err)
		}
		rep.Passwords++
	}

	return rep, nil
}

func reencrypt(oldCipher, newCipher *crypto.Cipher, ciphertext string) (string, error) {
	plain, err := oldCipher.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return newCipher.Encrypt(plain)
}
