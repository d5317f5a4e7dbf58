package posts

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a repository over the "posts" and "animals" collections.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) posts() *firestore.CollectionRef {
	return r.client.Collection("posts")
}

func (r *firestoreRepository) animals() *firestore.CollectionRef {
	return r.client.Collection("animals")
}

func (r *firestoreRepository) CreatePost(ctx context.Context, p *Post) (*Post, bool, error) {
	var (
		stored  Post
		existed bool
	)
	query := r.posts().Where("user_id", "==", p.UserID).Where("image_url", "==", p.ImageURL).Limit(1)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existed = false
		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			existed = true
			return decodePost(docs[0], &stored)
		}
		stored = *p
		return tx.Create(r.posts().Doc(p.ID), p)
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, existed, nil
}

func (r *firestoreRepository) GetPost(ctx context.Context, id string) (*Post, error) {
	doc, err := r.posts().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p Post
	if err := decodePost(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes the post document and its likes subcollection. Firestore does
// not delete subcollections with their parent.
func (r *firestoreRepository) DeletePost(ctx context.Context, id string) error {
	ref := r.posts().Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}

	bw := r.client.BulkWriter(ctx)
	defer bw.End()
	var jobs []*firestore.BulkWriterJob
	iter := ref.Collection("likes").Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("list likes of post %s: %w", id, err)
		}
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			return fmt.Errorf("delete like %s: %w", doc.Ref.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.Flush()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("delete likes of post %s: %w", id, err)
		}
	}
	return nil
}

func (r *firestoreRepository) Latest(ctx context.Context, limit int) ([]Post, error) {
	return collectPosts(r.posts().OrderBy("created_at", firestore.Desc).Limit(limit).Documents(ctx))
}

// ByUser filters on user_id only and sorts in memory to avoid a composite index.
func (r *firestoreRepository) ByUser(ctx context.Context, userID string) ([]Post, error) {
	rows, err := collectPosts(r.posts().Where("user_id", "==", userID).Documents(ctx))
	if err != nil {
		return nil, err
	}
	sortNewestFirst(rows)
	return rows, nil
}

func (r *firestoreRepository) All(ctx context.Context) ([]Post, error) {
	return collectPosts(r.posts().OrderBy("created_at", firestore.Desc).Documents(ctx))
}

func (r *firestoreRepository) UpsertAnimal(ctx context.Context, a *Animal) (*Animal, error) {
	var stored Animal
	query := r.animals().Where("species", "==", a.Species).Limit(1)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			stored = *a
			return tx.Create(r.animals().Doc(a.ID), a)
		}
		if err := docs[0].DataTo(&stored); err != nil {
			return fmt.Errorf("unmarshal animal: %w", err)
		}
		stored.ID = docs[0].Ref.ID
		stored.CommonNames, stored.Kingdom, stored.Class = a.CommonNames, a.Kingdom, a.Class
		stored.FunFacts, stored.RarityLevel = a.FunFacts, a.RarityLevel
		return tx.Set(docs[0].Ref, map[string]interface{}{
			"common_names": a.CommonNames,
			"kingdom":      a.Kingdom,
			"class":        a.Class,
			"fun_facts":    a.FunFacts,
			"rarity_level": a.RarityLevel,
		}, firestore.MergeAll)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *firestoreRepository) AnimalsByID(ctx context.Context, ids []string) (map[string]*Animal, error) {
	out := make(map[string]*Animal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.animals().Doc(id))
	}
	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var a Animal
		if err := doc.DataTo(&a); err != nil {
			return nil, fmt.Errorf("unmarshal animal: %w", err)
		}
		a.ID = doc.Ref.ID
		out[a.ID] = &a
	}
	return out, nil
}

func collectPosts(iter *firestore.DocumentIterator) ([]Post, error) {
	defer iter.Stop()
	var rows []Post
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var p Post
		if err := decodePost(doc, &p); err != nil {
			return nil, err
		}
		rows = append(rows, p)
	}
	return rows, nil
}

func decodePost(doc *firestore.DocumentSnapshot, p *Post) error {
	if err := doc.DataTo(p); err != nil {
		return fmt.Errorf("unmarshal post: %w", err)
	}
	p.ID = doc.Ref.ID
	return nil
}
