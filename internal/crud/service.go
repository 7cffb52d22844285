// Package crud provides the generic persistence service every entity
// service is a specialization of. Each operation validates and authorizes
// before it touches storage; validation failures come back as data,
// authorization failures as errors.
package crud

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/shared"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// Validator is the validation strategy of one entity type.
type Validator[T any] interface {
	Validate(ctx context.Context, doc T) (*validation.Result[T], error)
}

// Service orchestrates validation, authorization, query options and storage
// for one collection. Entity services embed it and only supply their
// validator and authorizer.
type Service[T docstore.Entity] struct {
	coll      docstore.Collection[T]
	validator Validator[T]
	authz     Authorizer[T]
}

// New wires a service from its strategy parts.
func New[T docstore.Entity](coll docstore.Collection[T], validator Validator[T], authz Authorizer[T]) *Service[T] {
	return &Service[T]{coll: coll, validator: validator, authz: authz}
}

// Collection exposes the underlying collection to specializations.
func (s *Service[T]) Collection() docstore.Collection[T] { return s.coll }

// Validate runs the entity validation pipeline without touching storage.
func (s *Service[T]) Validate(ctx context.Context, doc T) (*validation.Result[T], error) {
	return s.validator.Validate(ctx, doc)
}

func (s *Service[T]) readQuery(ctx context.Context, actor *model.User) (docstore.Query[T], error) {
	q, ok, err := s.authz.AuthorizeQuery(ctx, actor, s.coll.Query())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.Forbiddenf("lecture refusée sur ressource %s", s.coll.Name())
	}
	return q, nil
}

// Get lists the documents the principal may read, with sort/skip/limit
// applied after the authorization narrowing.
func (s *Service[T]) Get(ctx context.Context, actor *model.User, opts *QueryOptions) ([]T, error) {
	q, err := s.readQuery(ctx, actor)
	if err != nil {
		return nil, err
	}
	return ApplyOptions(q, opts).Documents(ctx)
}

// GetByID fetches one document. A missing document returns the zero value
// and no error; an existing document the principal may not read returns
// shared.ErrForbidden, so absence and denial stay distinguishable.
func (s *Service[T]) GetByID(ctx context.Context, actor *model.User, id string) (T, error) {
	var zero T
	doc, err := s.coll.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return zero, nil
		}
		return zero, err
	}
	ok, err := s.authz.AuthorizeRead(ctx, actor, doc)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, shared.Forbiddenf("lecture refusée sur document %s", id)
	}
	return doc, nil
}

// Count returns the cardinality of the principal's readable subset.
func (s *Service[T]) Count(ctx context.Context, actor *model.User) (int, error) {
	q, err := s.readQuery(ctx, actor)
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// Create strips any caller-supplied id, validates, authorizes the proposed
// document and persists it. The returned result carries the stored entity
// with its assigned id.
func (s *Service[T]) Create(ctx context.Context, actor *model.User, doc T) (*validation.Result[T], error) {
	doc.SetDocumentID("")
	res, err := s.validator.Validate(ctx, doc)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return res, nil
	}
	ok, err := s.authz.AuthorizeCreate(ctx, actor, res.Doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.Forbiddenf("création refusée sur ressource %s", s.coll.Name())
	}
	id, err := s.coll.Add(ctx, res.Doc)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.coll.Name(), err)
	}
	stored, err := s.coll.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.coll.Name(), err)
	}
	return &validation.Result[T]{Valid: true, Doc: stored}, nil
}

// Update validates the full proposed document, authorizes against both the
// stored original and the proposed state, then overwrites the document.
func (s *Service[T]) Update(ctx context.Context, actor *model.User, doc T) (*validation.Result[T], error) {
	res, err := s.validator.Validate(ctx, doc)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return res, nil
	}
	id := doc.DocumentID()
	if id == "" {
		return nil, shared.BadRequestf("identifiant requis pour la mise à jour sur %s", s.coll.Name())
	}
	original, err := s.coll.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", s.coll.Name(), id, err)
	}
	if ok, err := s.authz.AuthorizeRead(ctx, actor, original); err != nil {
		return nil, err
	} else if !ok {
		return nil, shared.Forbiddenf("lecture refusée sur document %s", id)
	}
	ok, err := s.authz.AuthorizeUpdate(ctx, actor, original, res.Doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.Forbiddenf("mise à jour refusée sur document %s", id)
	}
	if err := s.coll.Set(ctx, id, res.Doc); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", s.coll.Name(), id, err)
	}
	stored, err := s.coll.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", s.coll.Name(), id, err)
	}
	return &validation.Result[T]{Valid: true, Doc: stored}, nil
}

// Delete removes a document after authorizing against the stored original.
func (s *Service[T]) Delete(ctx context.Context, actor *model.User, id string) (bool, error) {
	original, err := s.coll.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", s.coll.Name(), id, err)
	}
	if ok, err := s.authz.AuthorizeRead(ctx, actor, original); err != nil {
		return false, err
	} else if !ok {
		return false, shared.Forbiddenf("lecture refusée sur document %s", id)
	}
	ok, err := s.authz.AuthorizeDelete(ctx, actor, original)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, shared.Forbiddenf("suppression refusée sur document %s", id)
	}
	if err := s.coll.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", s.coll.Name(), id, err)
	}
	return true, nil
}

// SearchByField lists the readable documents whose field equals value.
func (s *Service[T]) SearchByField(ctx context.Context, actor *model.User, field string, value any, opts *QueryOptions) ([]T, error) {
	q, err := s.readQuery(ctx, actor)
	if err != nil {
		return nil, err
	}
	q = q.Where(field, docstore.OpEqual, value)
	return ApplyOptions(q, opts).Documents(ctx)
}

// PrefixSearchByField lists the readable documents whose string field
// starts with prefix, expressed as the range [prefix, prefix+maxRune].
func (s *Service[T]) PrefixSearchByField(ctx context.Context, actor *model.User, field, prefix string, opts *QueryOptions) ([]T, error) {
	q, err := s.readQuery(ctx, actor)
	if err != nil {
		return nil, err
	}
	q = q.Where(field, docstore.OpGreaterOrEqual, prefix).
		Where(field, docstore.OpLessOrEqual, prefix+string(utf8.MaxRune))
	return ApplyOptions(q, opts).Documents(ctx)
}
