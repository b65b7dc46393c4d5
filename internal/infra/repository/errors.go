package repository

import (
	repo "ortus/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// unique_violation
const pgUniqueViolation = "23505"

// gormのエラーをrepositoryのエラーにそろえる
func translateGormErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.WithMessage(repo.ErrDuplicate, pgErr.ConstraintName)
	}
	return errors.Wrap(err, op)
}

// mongoのエラーをrepositoryのエラーにそろえる
func translateMongoErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repo.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.WithMessage(repo.ErrDuplicate, op)
	}
	return errors.Wrap(err, op)
}
