package likes

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores likes as posts/{postID}/likes/{userID} and keeps a
// like_count counter on the post document.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) post(postID string) *firestore.DocumentRef {
	return r.client.Collection("posts").Doc(postID)
}

func (r *firestoreRepository) Toggle(ctx context.Context, postID, userID string, now time.Time) (bool, error) {
	postRef := r.post(postID)
	likeRef := postRef.Collection("likes").Doc(userID)
	liked := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		liked = false
		_, err := tx.Get(likeRef)
		switch {
		case err == nil:
			if err := tx.Delete(likeRef); err != nil {
				return err
			}
			return tx.Set(postRef, map[string]interface{}{"like_count": firestore.Increment(-1)}, firestore.MergeAll)
		case status.Code(err) == codes.NotFound:
			liked = true
			if err := tx.Create(likeRef, Like{PostID: postID, UserID: userID, CreatedAt: now}); err != nil {
				return err
			}
			return tx.Set(postRef, map[string]interface{}{"like_count": firestore.Increment(1)}, firestore.MergeAll)
		default:
			return err
		}
	})
	return liked, err
}

func (r *firestoreRepository) Count(ctx context.Context, postID string) (int, error) {
	doc, err := r.post(postID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	raw, err := doc.DataAt("like_count")
	if err != nil {
		return 0, nil
	}
	n, _ := raw.(int64)
	if n < 0 {
		n = 0
	}
	return int(n), nil
}

func (r *firestoreRepository) Exists(ctx context.Context, postID, userID string) (bool, error) {
	_, err := r.post(postID).Collection("likes").Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *firestoreRepository) List(ctx context.Context, postID string) ([]Like, error) {
	iter := r.post(postID).Collection("likes").OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []Like
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var l Like
		if err := doc.DataTo(&l); err != nil {
			return nil, fmt.Errorf("unmarshal like: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}
