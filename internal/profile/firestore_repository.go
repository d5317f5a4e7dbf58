package profile

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a repository over the "profiles" collection.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Get(ctx context.Context, id string) (*Profile, error) {
	doc, err := r.client.Collection("profiles").Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	p.ID = id
	return &p, nil
}

func (r *firestoreRepository) GetMany(ctx context.Context, ids []string) (map[string]*Profile, error) {
	out := make(map[string]*Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.client.Collection("profiles").Doc(id))
	}
	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var p Profile
		if err := doc.DataTo(&p); err != nil {
			return nil, fmt.Errorf("unmarshal profile: %w", err)
		}
		p.ID = doc.Ref.ID
		out[p.ID] = &p
	}
	return out, nil
}

func (r *firestoreRepository) Create(ctx context.Context, p *Profile) (*Profile, error) {
	docRef := r.client.Collection("profiles").Doc(p.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(docRef)
		if err == nil {
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}
		return tx.Create(docRef, p)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, p.ID)
}

func (r *firestoreRepository) Update(ctx context.Context, id string, input UpdateInput, now time.Time) (*Profile, error) {
	docRef := r.client.Collection("profiles").Doc(id)
	data := map[string]interface{}{"updated_at": now}
	if input.DisplayName != nil {
		data["display_name"] = *input.DisplayName
	}
	if input.Username != nil {
		data["username"] = *input.Username
	}
	if input.Bio != nil {
		data["bio"] = *input.Bio
	}
	if input.ProfileImageURL != nil {
		data["profile_image_url"] = *input.ProfileImageURL
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		return tx.Set(docRef, data, firestore.MergeAll)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}
