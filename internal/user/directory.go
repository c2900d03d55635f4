package user

import "context"

// Directory adapts the user repository to the ledger's account directory
// contract: recipient email in, wallet owner id out.
type Directory struct {
	repo Repository
}

// NewDirectory builds an account directory over the user repository.
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// ResolveByEmail returns the id of the account registered under email,
// propagating storage.ErrNotFound for unknown addresses.
func (d *Directory) ResolveByEmail(ctx context.Context, email string) (string, error) {
	u, err := d.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}
